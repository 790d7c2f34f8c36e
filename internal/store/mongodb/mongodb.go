// Package mongodb backs the document store with a single MongoDB
// collection. Each document is kept as {_id: path, parent: collection
// path, fields: {...}}, which keeps the hierarchical path addressing
// and lets List run as an indexed equality query on parent.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuswell/wellness-api/internal/store"
)

type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type document struct {
	ID     string       `bson:"_id"`
	Parent string       `bson:"parent"`
	Fields store.Fields `bson:"fields"`
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parent index: %w", err)
	}

	return &Store{client: client, coll: coll}, nil
}

func (s *Store) Get(ctx context.Context, path string) (store.Fields, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	return normalizeFields(doc.Fields), nil
}

func (s *Store) Set(ctx context.Context, path string, fields store.Fields, merge bool) error {
	parent := store.ParentPath(path)

	if !merge {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": path},
			document{ID: path, Parent: parent, Fields: fields},
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to set document %s: %w", path, err)
		}
		return nil
	}

	set := bson.M{}
	for k, v := range fields {
		set["fields."+k] = v
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": path},
		bson.M{"$set": set, "$setOnInsert": bson.M{"parent": parent}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to merge document %s: %w", path, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, fields store.Fields) error {
	set := bson.M{}
	for k, v := range fields {
		set["fields."+k] = v
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": path}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", path, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteField(ctx context.Context, path, field string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": path},
		bson.M{"$unset": bson.M{"fields." + field: ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete field %s of %s: %w", field, path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": path})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collectionPath string) ([]store.Document, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"parent": collectionPath})
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collectionPath, err)
	}
	defer cursor.Close(ctx)

	var docs []store.Document
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, store.Document{
			ID:     store.BasePath(doc.ID),
			Fields: normalizeFields(doc.Fields),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection %s: %w", collectionPath, err)
	}
	return docs, nil
}

// WithTransaction runs fn inside a MongoDB session transaction.
// Requires the server to run as a replica set.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Ping reports whether the backing server is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// normalizeFields maps driver-specific scalar types back onto the
// plain Go types callers stored.
func normalizeFields(fields store.Fields) store.Fields {
	if fields == nil {
		return store.Fields{}
	}
	for k, v := range fields {
		switch t := v.(type) {
		case primitive.DateTime:
			fields[k] = t.Time().UTC()
		case int32:
			fields[k] = int(t)
		case int64:
			fields[k] = int(t)
		}
	}
	return fields
}
