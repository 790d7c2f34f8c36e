// Package memory is an in-process Store used by tests and local
// development. Transactions take a snapshot of the whole data set and
// restore it when fn fails, so partial writes never survive.
package memory

import (
	"context"
	"sync"

	"github.com/campuswell/wellness-api/internal/store"
)

type txKey struct{}

type Store struct {
	mu   sync.Mutex
	docs map[string]store.Fields
}

func New() *Store {
	return &Store{docs: make(map[string]store.Fields)}
}

func (s *Store) lock(ctx context.Context) func() {
	// Calls inside WithTransaction already hold the lock.
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Get(ctx context.Context, path string) (store.Fields, error) {
	defer s.lock(ctx)()

	doc, ok := s.docs[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyFields(doc), nil
}

func (s *Store) Set(ctx context.Context, path string, fields store.Fields, merge bool) error {
	defer s.lock(ctx)()

	doc, ok := s.docs[path]
	if !ok || !merge {
		doc = make(store.Fields, len(fields))
		s.docs[path] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, fields store.Fields) error {
	defer s.lock(ctx)()

	doc, ok := s.docs[path]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *Store) DeleteField(ctx context.Context, path, field string) error {
	defer s.lock(ctx)()

	if doc, ok := s.docs[path]; ok {
		delete(doc, field)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	defer s.lock(ctx)()

	delete(s.docs, path)
	return nil
}

func (s *Store) List(ctx context.Context, collectionPath string) ([]store.Document, error) {
	defer s.lock(ctx)()

	var docs []store.Document
	for path, fields := range s.docs {
		if store.ParentPath(path) != collectionPath {
			continue
		}
		docs = append(docs, store.Document{
			ID:     store.BasePath(path),
			Fields: copyFields(fields),
		})
	}
	return docs, nil
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]store.Fields, len(s.docs))
	for path, fields := range s.docs {
		snapshot[path] = copyFields(fields)
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.docs = snapshot
		return err
	}
	return nil
}

func copyFields(fields store.Fields) store.Fields {
	out := make(store.Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
