package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/costumerental-backend/api/controllers"
	"github.com/angelmondragon/costumerental-backend/internal/cart"
	"github.com/angelmondragon/costumerental-backend/internal/checkout"
	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/internal/reports"
	"github.com/angelmondragon/costumerental-backend/pkg/auth"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/db/dbtest"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
)

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryKV() *memoryKV { return &memoryKV{values: map[string]string{}} }

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryKV) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryKV) CartKey(staffID string) string { return "cz:cart:" + staffID }

func (m *memoryKV) IdempotencyKey(scope, id string) string { return "cz:idempotency:" + scope + ":" + id }

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type harness struct {
	handler http.Handler
	cfg     *config.Config
	clerk   string
	manager string
}

func newHarness(t *testing.T, readiness map[string]controllers.Pinger) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	now := func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	kv := newMemoryKV()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "costumerz", ExpirationMinutes: 60},
		Provisioning: config.ProvisioningConfig{
			IdempotencyTTL: time.Hour,
		},
	}

	costumeRepo := costumes.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	costumeSvc, err := costumes.NewService(costumeRepo)
	if err != nil {
		t.Fatalf("costume service: %v", err)
	}
	customerSvc, err := customers.NewService(customerRepo)
	if err != nil {
		t.Fatalf("customer service: %v", err)
	}
	rentalSvc, err := rentals.NewService(rentals.ServiceParams{
		Repo:      rentals.NewRepository(conn),
		Costumes:  costumeRepo,
		Customers: customerRepo,
		Tx:        db.NewFromConn(conn),
		Now:       now,
	})
	if err != nil {
		t.Fatalf("rental service: %v", err)
	}
	cartSvc, err := cart.NewService(kv, costumeSvc, time.Hour)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Customers: customerSvc,
		Rentals:   rentalSvc,
		Carts:     cartSvc,
		Logger:    logg,
		Now:       now,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	reportSvc, err := reports.NewService(rentalSvc, now)
	if err != nil {
		t.Fatalf("report service: %v", err)
	}

	reg := metrics.NewRegistry()
	handler := NewRouter(Params{
		Config:      cfg,
		Logger:      logg,
		Readiness:   readiness,
		Idempotency: kv,
		Registry:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Clock:       now,
		Costumes:    costumeSvc,
		Customers:   customerSvc,
		Rentals:     rentalSvc,
		Cart:        cartSvc,
		Checkout:    checkoutSvc,
		Reports:     reportSvc,
	})

	return &harness{
		handler: handler,
		cfg:     cfg,
		clerk:   mintToken(t, cfg, enums.StaffRoleClerk),
		manager: mintToken(t, cfg, enums.StaffRoleManager),
	}
}

func mintToken(t *testing.T, cfg *config.Config, role enums.StaffRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{StaffID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (h *harness) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, resp.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t, map[string]controllers.Pinger{
		"database": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	if resp := h.do(t, http.MethodGet, "/health/live", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	resp := h.do(t, http.MethodGet, "/health/ready", "", nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "redis") {
		t.Fatalf("expected failing dependency named, got %s", resp.Body.String())
	}
}

func TestAPIRequiresStaffToken(t *testing.T) {
	h := newHarness(t, nil)
	if resp := h.do(t, http.MethodGet, "/api/v1/costumes", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	resp := h.do(t, http.MethodPost, "/api/v1/costumes", h.clerk, map[string]any{"name": "Pirate", "size": "M", "sell_price": "10"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected clerk to be refused catalog writes, got %d", resp.Code)
	}
	if resp := h.do(t, http.MethodGet, "/api/v1/reports/dashboard", h.clerk, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected clerk to be refused reports, got %d", resp.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodPost, "/api/v1/costumes", h.manager, map[string]any{
		"name": "Pirate", "category": "Adventure", "size": "M", "sell_price": "25.00", "stock_quantity": 3,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create costume: %d %s", resp.Code, resp.Body.String())
	}
	var costume struct {
		ID uuid.UUID `json:"id"`
	}
	decodeData(t, resp, &costume)

	resp = h.do(t, http.MethodPost, "/api/v1/cart/items", h.clerk, map[string]any{"costume_id": costume.ID, "quantity": 2})
	if resp.Code != http.StatusCreated {
		t.Fatalf("add item: %d %s", resp.Code, resp.Body.String())
	}
	var view struct {
		TotalItems int    `json:"total_items"`
		TotalPrice string `json:"total_price"`
	}
	decodeData(t, resp, &view)
	if view.TotalItems != 2 || view.TotalPrice != "50" {
		t.Fatalf("unexpected cart view %+v", view)
	}

	form := map[string]any{
		"customer":             map[string]any{"first_name": "Ines", "phone": "555-0101"},
		"rental_date":          "2024-06-10",
		"expected_return_date": "2024-06-12",
		"notes":                "party",
	}
	if resp := h.do(t, http.MethodPost, "/api/v1/checkout", h.clerk, form); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected missing idempotency key to be rejected, got %d", resp.Code)
	}

	resp = h.do(t, http.MethodPost, "/api/v1/checkout", h.clerk, form, "Idempotency-Key", "batch-1")
	if resp.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", resp.Code, resp.Body.String())
	}
	first := resp.Body.String()
	var outcome struct {
		Status    string      `json:"status"`
		Succeeded int         `json:"succeeded"`
		RentalIDs []uuid.UUID `json:"rental_ids"`
	}
	decodeData(t, resp, &outcome)
	if outcome.Status != "full_success" || outcome.Succeeded != 2 || len(outcome.RentalIDs) != 2 {
		t.Fatalf("unexpected outcome %s", first)
	}

	replay := h.do(t, http.MethodPost, "/api/v1/checkout", h.clerk, form, "Idempotency-Key", "batch-1")
	if replay.Code != http.StatusCreated || replay.Body.String() != first {
		t.Fatalf("expected replayed outcome, got %d %s", replay.Code, replay.Body.String())
	}

	resp = h.do(t, http.MethodGet, "/api/v1/cart", h.clerk, nil)
	decodeData(t, resp, &view)
	if view.TotalItems != 0 {
		t.Fatalf("expected cart cleared after checkout, got %+v", view)
	}

	resp = h.do(t, http.MethodGet, "/api/v1/rentals?status=active", h.clerk, nil)
	var list []struct {
		ID              uuid.UUID `json:"id"`
		Notes           string    `json:"notes"`
		EffectiveStatus string    `json:"effective_status"`
	}
	decodeData(t, resp, &list)
	if len(list) != 2 || list[0].EffectiveStatus != "ACTIVE" || list[0].Notes != "party (Size: M)" {
		t.Fatalf("unexpected rentals %+v", list)
	}

	resp = h.do(t, http.MethodPost, "/api/v1/rentals/"+list[0].ID.String()+"/return", h.clerk, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("return: %d %s", resp.Code, resp.Body.String())
	}
	resp = h.do(t, http.MethodPost, "/api/v1/rentals/"+list[0].ID.String()+"/cancel", h.clerk, nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected returned rental to refuse cancel, got %d", resp.Code)
	}

	resp = h.do(t, http.MethodGet, "/api/v1/reports/customers?sort=total", h.manager, nil)
	var groups []struct {
		ActiveCount   int    `json:"active_count"`
		ReturnedCount int    `json:"returned_count"`
		TotalAmount   string `json:"total_amount"`
	}
	decodeData(t, resp, &groups)
	if len(groups) != 1 || groups[0].ActiveCount != 1 || groups[0].ReturnedCount != 1 {
		t.Fatalf("unexpected groups %+v", groups)
	}

	resp = h.do(t, http.MethodGet, "/metrics", "", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatalf("expected request metrics exposed, got %d", resp.Code)
	}
}
