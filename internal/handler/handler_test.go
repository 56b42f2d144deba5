package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/application"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	itemDomain "github.com/rentify/service-booking/internal/domain/item"
	"github.com/rentify/service-booking/internal/handler"
	"github.com/rentify/service-booking/internal/platform/auth"
	"github.com/rentify/service-booking/internal/repository/memory"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind         string `json:"kind"`
		Message      string `json:"message"`
		CurrentState string `json:"current_state"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type server struct {
	router  *gin.Engine
	jwt     *auth.JWTManager
	store   *memory.Store
	itemID  uuid.UUID
	ownerID uuid.UUID
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := memory.NewStore()
	ownerID := uuid.New()
	it, err := itemDomain.NewItem(uuid.New(), ownerID, "Road bike", decimal.RequireFromString("25.00"), 0, 0)
	require.NoError(t, err)
	store.PutItem(it)

	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	dispatcher := application.NewDispatcher(logger)
	svc := application.NewBookingService(store, store, bookingDomain.NewStandardPricingStrategy(), dispatcher,
		application.BookingServiceConfig{Clock: func() time.Time { return now }}, logger)
	avail := application.NewAvailabilityService(store, store.Items(), store, svc.Today, logger)
	sweeper := application.NewExpirySweeper(store, svc, dispatcher, 1, logger)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := gin.New()
	handler.NewBookingHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewItemHandler(application.NewItemService(store.Items(), logger), avail).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(svc, avail, sweeper).RegisterRoutes(&router.RouterGroup, jwtManager)

	return &server{router: router, jwt: jwtManager, store: store, itemID: it.ID(), ownerID: ownerID}
}

func (s *server) token(t *testing.T, userID uuid.UUID, role auth.Role) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(userID, "someone@example.com", role)
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestBookingRoutes_Lifecycle(t *testing.T) {
	s := newServer(t)
	renter := uuid.New()
	renterTok := s.token(t, renter, auth.RoleUser)
	ownerTok := s.token(t, s.ownerID, auth.RoleUser)

	code, env := s.do(t, http.MethodPost, "/api/v1/bookings", renterTok, map[string]any{
		"item_id":              s.itemID,
		"start_date":           "2026-04-01",
		"end_date":             "2026-04-04",
		"third_party_required": true,
	})
	require.Equal(t, http.StatusCreated, code)
	created := decode[application.BookingDTO](t, env.Data)
	assert.Equal(t, "100.00", created.TotalPrice)
	assert.True(t, created.ThirdPartyLogistics)

	base := "/api/v1/bookings/" + created.ID.String()

	code, env = s.do(t, http.MethodPost, base+"/renter_confirm", renterTok, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_transition", env.Error.Kind)
	assert.Equal(t, "PENDING", env.Error.CurrentState)

	code, _ = s.do(t, http.MethodPost, base+"/owner_accept", ownerTok, map[string]string{"owner_note": "helmet included"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, base+"/renter_confirm", renterTok, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, base+"/extend", renterTok, map[string]int{"days": 1})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2026-04-05", decode[application.BookingDTO](t, env.Data).EndDate)

	code, env = s.do(t, http.MethodGet, base+"/history", ownerTok, nil)
	require.Equal(t, http.StatusOK, code)
	history := decode[[]application.HistoryEntryDTO](t, env.Data)
	require.Len(t, history, 3)
	assert.Equal(t, "CONFIRMED", history[0].PreviousStatus, "newest first by default")

	code, env = s.do(t, http.MethodGet, base+"/history?order=asc", ownerTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PENDING", decode[[]application.HistoryEntryDTO](t, env.Data)[0].PreviousStatus)

	code, env = s.do(t, http.MethodPost, base+"/complete", ownerTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "COMPLETED", decode[application.BookingDTO](t, env.Data).Status)

	code, env = s.do(t, http.MethodGet, "/api/v1/bookings?status=COMPLETED", renterTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestBookingRoutes_Errors(t *testing.T) {
	s := newServer(t)
	renterTok := s.token(t, uuid.New(), auth.RoleUser)

	code, env := s.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = s.do(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", renterTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), renterTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error.Kind)

	code, _ = s.do(t, http.MethodPost, "/api/v1/bookings", renterTok, map[string]any{"item_id": s.itemID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/bookings", renterTok, map[string]any{
		"item_id": s.itemID, "start_date": "2026-04-05", "end_date": "2026-04-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invariant_violation", env.Error.Kind)

	code, _ = s.do(t, http.MethodGet, "/api/v1/bookings?status=LOST", renterTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBookingRoutes_StrangerIsForbidden(t *testing.T) {
	s := newServer(t)
	renterTok := s.token(t, uuid.New(), auth.RoleUser)
	code, env := s.do(t, http.MethodPost, "/api/v1/bookings", renterTok, map[string]any{
		"item_id": s.itemID, "start_date": "2026-04-01", "end_date": "2026-04-02",
	})
	require.Equal(t, http.StatusCreated, code)
	id := decode[application.BookingDTO](t, env.Data).ID

	code, _ = s.do(t, http.MethodGet, "/api/v1/bookings/"+id.String(), s.token(t, uuid.New(), auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/bookings/"+id.String(), s.token(t, uuid.New(), auth.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestItemRoutes_Availability(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, uuid.New(), auth.RoleUser)
	base := "/api/v1/items/" + s.itemID.String()

	code, env := s.do(t, http.MethodGet, base, tok, nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[application.ItemDTO](t, env.Data)
	assert.Equal(t, "25.00", got.PricePerDay)
	assert.Equal(t, "AVAILABLE", got.AdministrativeStatus)

	code, env = s.do(t, http.MethodGet, base+"/availability", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[application.AvailabilityDTO](t, env.Data).AvailableNow)

	code, env = s.do(t, http.MethodGet, base+"/availability/check?start=2026-04-01&end=2026-04-03", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[application.RangeAvailabilityDTO](t, env.Data).Available)

	code, _ = s.do(t, http.MethodGet, base+"/availability/check?start=2026-04-01", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/items/"+uuid.NewString()+"/availability", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)
	renter := uuid.New()
	adminTok := s.token(t, uuid.New(), auth.RoleAdmin)
	ctx := context.Background()

	// Seed a confirmed booking that ended before the server's today.
	code, env := s.do(t, http.MethodPost, "/api/v1/bookings", s.token(t, renter, auth.RoleUser), map[string]any{
		"item_id": s.itemID, "start_date": "2026-03-10", "end_date": "2026-03-12",
	})
	require.Equal(t, http.StatusCreated, code)
	id := decode[application.BookingDTO](t, env.Data).ID
	code, _ = s.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/owner_accept", s.token(t, s.ownerID, auth.RoleUser), nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/renter_confirm", s.token(t, renter, auth.RoleUser), nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/admin/bookings", s.token(t, renter, auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), decode[application.BookingStatsDTO](t, env.Data).ByStatus["CONFIRMED"])

	code, env = s.do(t, http.MethodPost, "/api/v1/admin/sweeps/expiry", adminTok, map[string]bool{"dry_run": true})
	require.Equal(t, http.StatusOK, code)
	dry := decode[application.SweepResult](t, env.Data)
	assert.True(t, dry.DryRun)
	assert.Equal(t, []uuid.UUID{id}, dry.Candidates)

	code, env = s.do(t, http.MethodPost, "/api/v1/admin/sweeps/expiry", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[application.SweepResult](t, env.Data).CompletedCount)

	code, env = s.do(t, http.MethodPost, "/api/v1/admin/items/reconcile", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]application.ReconcileResultDTO](t, env.Data), 1)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/admin/bookings/"+id.String(), adminTok, nil)
	assert.Equal(t, http.StatusNoContent, code)

	_, err := s.store.FindByID(ctx, id)
	assert.Error(t, err)
}
