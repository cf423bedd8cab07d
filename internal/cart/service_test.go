package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) CartKey(staffID string) string {
	return "cz:cart:" + staffID
}

type stubCostumes map[uuid.UUID]*models.Costume

func (s stubCostumes) Get(ctx context.Context, id uuid.UUID) (*models.Costume, error) {
	costume, ok := s[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "costume not found")
	}
	return costume, nil
}

func newTestService(t *testing.T, store *memoryStore, catalog stubCostumes) Service {
	t.Helper()
	svc, err := NewService(store, catalog, time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func pirate() *models.Costume {
	return &models.Costume{ID: uuid.New(), Name: "Pirate", Size: "M", SellPrice: decimal.NewFromInt(40), AvailableStock: 3}
}

func TestAddItemPersistsAndMerges(t *testing.T) {
	store := newMemoryStore()
	costume := pirate()
	svc := newTestService(t, store, stubCostumes{costume.ID: costume})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	cart, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Size: "m", Quantity: 2})
	if err != nil {
		t.Fatalf("add item again: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 4 {
		t.Fatalf("expected one merged line with 4 units, got %+v", cart.Items)
	}
	if store.ttls["cz:cart:staff-1"] != time.Hour {
		t.Fatalf("expected ttl to be applied")
	}

	reloaded, err := svc.Get(ctx, "staff-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	view := NewView(reloaded)
	if view.TotalItems != 4 || !view.TotalPrice.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestAddItemRejectsOverStockAndUnknown(t *testing.T) {
	costume := pirate()
	svc := newTestService(t, newMemoryStore(), stubCostumes{costume.ID: costume})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Quantity: 4})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: uuid.New(), Quantity: 1})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemRequiresTheCostumeSize(t *testing.T) {
	store := newMemoryStore()
	costume := pirate()
	svc := newTestService(t, store, stubCostumes{costume.ID: costume})
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Size: "M", Quantity: 3})
	if err != nil {
		t.Fatalf("add matching size: %v", err)
	}
	if cart.Items[0].Size != "M" {
		t.Fatalf("expected line size M, got %q", cart.Items[0].Size)
	}

	_, err = svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Size: "XL", Quantity: 3})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for foreign size, got %v", err)
	}

	reloaded, err := svc.Get(ctx, "staff-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(reloaded.Items) != 1 || reloaded.TotalItems() != 3 {
		t.Fatalf("expected the rejected add to leave one line of 3, got %+v", reloaded.Items)
	}
}

func TestCartsAreIsolatedPerStaff(t *testing.T) {
	costume := pirate()
	svc := newTestService(t, newMemoryStore(), stubCostumes{costume.ID: costume})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	other, err := svc.Get(ctx, "staff-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !other.IsEmpty() {
		t.Fatalf("expected empty cart for another staff member")
	}
	if _, err := svc.Get(ctx, " "); pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for blank staff id, got %v", err)
	}
}

func TestSetRemoveAndClear(t *testing.T) {
	store := newMemoryStore()
	costume := pirate()
	svc := newTestService(t, store, stubCostumes{costume.ID: costume})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	cart, err := svc.SetItemQuantity(ctx, "staff-1", 0, 9)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if cart.Items[0].Quantity != 9 {
		t.Fatalf("expected quantity overwrite without stock check, got %d", cart.Items[0].Quantity)
	}

	cart, err = svc.RemoveItem(ctx, "staff-1", 5)
	if err != nil {
		t.Fatalf("remove out of range: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected out of range remove to be a no-op")
	}

	if _, err := svc.RemoveItem(ctx, "staff-1", 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.values["cz:cart:staff-1"]; ok {
		t.Fatalf("expected empty cart to drop its key")
	}

	if _, err := svc.AddItem(ctx, "staff-1", AddItemInput{CostumeID: costume.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.Clear(ctx, "staff-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cleared, err := svc.Get(ctx, "staff-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cleared.IsEmpty() {
		t.Fatalf("expected cleared cart")
	}
}

func TestGetWrapsStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("connection reset")
	svc := newTestService(t, store, stubCostumes{})

	_, err := svc.Get(context.Background(), "staff-1")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
