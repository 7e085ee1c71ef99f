package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/campground-backend/internal/bookings"
	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	pkgAuth "github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/auth/session"
	"github.com/angelmondragon/campground-backend/pkg/config"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	hits map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, hits: map[string]int64{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string {
	return "test:idem:" + scope + ":" + id
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeRedis) Ping(context.Context) error {
	return nil
}

func (f *fakeRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[scope]++
	return f.hits[scope] <= limit, f.hits[scope], nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

// Embedded interfaces panic on any method a test does not expect.
type stubCampgrounds struct {
	campgrounds.Service
}

func (stubCampgrounds) List(context.Context, campgrounds.ListQuery) (*campgrounds.ListResult, error) {
	return &campgrounds.ListResult{Items: []campgrounds.CampgroundDTO{}}, nil
}

type stubBookings struct {
	bookings.Service
	mu      sync.Mutex
	created int
}

func (s *stubBookings) Create(_ context.Context, _ pkgAuth.Principal, campgroundID uuid.UUID, _ bookings.CreateInput) (*bookings.CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return &bookings.CreateResult{Booking: bookings.BookingDTO{ID: uuid.New(), CampgroundID: campgroundID}}, nil
}

func (s *stubBookings) List(context.Context, pkgAuth.Principal, *uuid.UUID) ([]bookings.BookingDTO, error) {
	return []bookings.BookingDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "dev", RequestTimeout: 5 * time.Second},
		Service: config.ServiceConfig{Kind: "api"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "campground",
			ExpirationMinutes: 60,
		},
		RateLimit: config.RateLimitConfig{Window: time.Minute, Limit: 1000},
	}
}

type harness struct {
	cfg      *config.Config
	router   http.Handler
	redis    *fakeRedis
	bookings *stubBookings
}

func newHarness() *harness {
	cfg := testConfig()
	store := newFakeRedis()
	bookingSvc := &stubBookings{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := NewRouter(cfg, logg, Infra{
		DB:       stubPinger{},
		Redis:    store,
		Sessions: stubSessions{},
		Registry: prometheus.NewRegistry(),
	}, Services{
		Campgrounds: stubCampgrounds{},
		Bookings:    bookingSvc,
	})
	return &harness{cfg: cfg, router: router, redis: store, bookings: bookingSvc}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	h := newHarness()
	resp := h.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCampgroundListIsPublic(t *testing.T) {
	h := newHarness()
	resp := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/campgrounds", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBookingsRequireJWT(t *testing.T) {
	h := newHarness()
	resp := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestBookingsSucceedWithJWT(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, h.cfg, enums.UserRoleUser))
	resp := h.do(req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCampgroundWritesRequireAdmin(t *testing.T) {
	h := newHarness()
	body := `{"name":"Pine Ridge"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campgrounds", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, h.cfg, enums.UserRoleUser))
	resp := h.do(req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/campgrounds/"+uuid.NewString(), nil)
	resp = h.do(req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestBookingCreateReplaysIdempotencyKey(t *testing.T) {
	h := newHarness()
	token := buildToken(t, h.cfg, enums.UserRoleUser)
	path := "/api/v1/campgrounds/" + uuid.NewString() + "/bookings"
	body := fmt.Sprintf(`{"apptDate":"2030-01-01T00:00:00Z","paymentMethod":"%s"}`, uuid.NewString())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "booking-1")
		resp := h.do(req)
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d: %s", i, resp.Code, resp.Body.String())
		}
	}
	if h.bookings.created != 1 {
		t.Fatalf("expected one booking to be created, got %d", h.bookings.created)
	}
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	h := newHarness()
	h.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatal("expected http_requests_total in metrics output")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newHarness()
	resp := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
