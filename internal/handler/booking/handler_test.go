package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingHandler "github.com/campuswell/wellness-api/internal/handler/booking"
	"github.com/campuswell/wellness-api/internal/middleware"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/internal/repository/docstore"
	bookingService "github.com/campuswell/wellness-api/internal/service/booking"
	"github.com/campuswell/wellness-api/internal/service/event"
	"github.com/campuswell/wellness-api/internal/store/memory"
	"github.com/campuswell/wellness-api/pkg/auth"
	"github.com/campuswell/wellness-api/pkg/httputil"
)

const testSecret = "test-secret"

type testServer struct {
	engine *gin.Engine
	repo   repository.SlotRepository
	jwt    auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := docstore.NewSlotRepository(memory.New())
	events := event.NewService(nil, "", zerolog.Nop())
	svc := bookingService.NewService(repo, events, time.UTC, zerolog.Nop(), nil)

	jwtSvc := auth.NewJWTService(testSecret, time.Hour)
	authMW := middleware.NewAuthMiddleware(jwtSvc)

	h := bookingHandler.NewHandler(svc)
	engine := gin.New()
	api := engine.Group("/api/v1", authMW.Authenticate())
	h.RegisterRoutes(api)
	adminAPI := api.Group("", authMW.RequireAdmin())
	h.RegisterAdminRoutes(adminAPI)

	return &testServer{engine: engine, repo: repo, jwt: jwtSvc}
}

func (ts *testServer) token(t *testing.T, email, role string) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken(email, role)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func bookingBody() map[string]interface{} {
	return map[string]interface{}{
		"date":         "2099-03-10",
		"time":         "09:00 AM",
		"name":         "Alice Smith",
		"age":          21,
		"gender":       "Female",
		"health_issue": "recurring headaches",
		"question1":    "no",
		"question2":    "yes",
	}
}

func TestCreateBooking(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.repo.AddSlots(context.Background(), "2099-03-10", []string{"09:00 AM"}))

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "alice@gmail.com", data["email"])
	assert.Equal(t, "booked", data["status"])
}

func TestCreateBookingRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", "", bookingBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBookingConflict(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.repo.AddSlots(context.Background(), "2099-03-10", []string{"09:00 AM"}))

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "bob@gmail.com", auth.RoleStudent), bookingBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookingInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	body := bookingBody()
	body["gender"] = "other"

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingByStranger(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.repo.AddSlots(context.Background(), "2099-03-10", []string{"09:00 AM"}))

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/bookings/2099-03-10/09:00%20AM", ts.token(t, "bob@gmail.com", auth.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/bookings/2099-03-10/09:00%20AM", ts.token(t, "alice@gmail.com", auth.RoleStudent), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.repo.AddSlots(context.Background(), "2099-03-10", []string{"09:00 AM"}))

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	patch := map[string]interface{}{"status": "confirmed", "doctor": "Dr. Patel"}

	rec = ts.do(t, http.MethodPatch, "/api/v1/bookings/2099-03-10/09:00%20AM/status", ts.token(t, "alice@gmail.com", auth.RoleStudent), patch)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/bookings/2099-03-10/09:00%20AM/status", ts.token(t, "admin@campus.edu", auth.RoleAdmin), patch)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/2099-03-10/09:00%20AM", ts.token(t, "admin@campus.edu", auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "Dr. Patel", data["doctor"])
}

func TestListBookingsReturnsOwnHistory(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.repo.AddSlots(context.Background(), "2099-03-10", []string{"09:00 AM", "10:00 AM"}))

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := bookingBody()
	body["time"] = "10:00 AM"
	rec = ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "bob@gmail.com", auth.RoleStudent), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "alice@gmail.com", data[0].(map[string]interface{})["email"])
}

func TestListAllBookingsAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.repo.AddSlots(context.Background(), "2099-03-10", []string{"09:00 AM"}))

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", ts.token(t, "alice@gmail.com", auth.RoleStudent), bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/appointments", ts.token(t, "alice@gmail.com", auth.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/appointments", ts.token(t, "admin@campus.edu", auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.([]interface{}), 1)
}
