package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/selection"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(staffID string) string
}

type costumeLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Costume, error)
}

// Service keeps each staff member's in-progress selection between requests.
type Service interface {
	Get(ctx context.Context, staffID string) (*selection.Builder, error)
	AddItem(ctx context.Context, staffID string, input AddItemInput) (*selection.Builder, error)
	SetItemQuantity(ctx context.Context, staffID string, index, quantity int) (*selection.Builder, error)
	RemoveItem(ctx context.Context, staffID string, index int) (*selection.Builder, error)
	Clear(ctx context.Context, staffID string) error
}

// AddItemInput picks a costume for the cart. Size defaults to the catalog
// entry's size.
type AddItemInput struct {
	CostumeID uuid.UUID `json:"costume_id" validate:"required"`
	Size      string    `json:"size" validate:"omitempty,max=20"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// View is the cart payload returned to staff.
type View struct {
	Items      []selection.Item `json:"items"`
	TotalItems int              `json:"total_items"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

// NewView renders the builder with its totals.
func NewView(b *selection.Builder) View {
	if b == nil {
		b = selection.New()
	}
	return View{
		Items:      b.Snapshot(),
		TotalItems: b.TotalItems(),
		TotalPrice: b.TotalPrice(),
	}
}

type service struct {
	store    snapshotStore
	costumes costumeLoader
	ttl      time.Duration
}

// NewService builds the cart service.
func NewService(store snapshotStore, costumes costumeLoader, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if costumes == nil {
		return nil, fmt.Errorf("costume loader required")
	}
	return &service{store: store, costumes: costumes, ttl: ttl}, nil
}

func (s *service) Get(ctx context.Context, staffID string) (*selection.Builder, error) {
	key, err := s.key(staffID)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return selection.New(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	builder := selection.New()
	if err := json.Unmarshal([]byte(raw), builder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return builder, nil
}

func (s *service) AddItem(ctx context.Context, staffID string, input AddItemInput) (*selection.Builder, error) {
	if input.CostumeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "costume id required")
	}
	costume, err := s.costumes.Get(ctx, input.CostumeID)
	if err != nil {
		return nil, err
	}

	// Each catalog row is one size with its own stock, so the line always
	// carries the row's size. A differing size names another row.
	if size := strings.TrimSpace(input.Size); size != "" && !strings.EqualFold(size, costume.Size) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "costume is stocked in size %s, not %s", costume.Size, size).
			WithDetails(map[string]string{"size": "must match the costume's size " + costume.Size})
	}
	size := costume.Size

	return s.mutate(ctx, staffID, func(b *selection.Builder) error {
		return b.AddItem(selection.Costume{
			ID:             costume.ID,
			Name:           costume.Name,
			Category:       costume.Category,
			SellPrice:      costume.SellPrice,
			AvailableStock: costume.AvailableStock,
		}, size, input.Quantity)
	})
}

func (s *service) SetItemQuantity(ctx context.Context, staffID string, index, quantity int) (*selection.Builder, error) {
	return s.mutate(ctx, staffID, func(b *selection.Builder) error {
		return b.SetItemQuantity(index, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, staffID string, index int) (*selection.Builder, error) {
	return s.mutate(ctx, staffID, func(b *selection.Builder) error {
		b.RemoveItem(index)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, staffID string) error {
	key, err := s.key(staffID)
	if err != nil {
		return err
	}
	if err := s.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// mutate loads the snapshot, applies fn and writes it back. The staff member
// is the only writer of their cart so no compare-and-swap is needed.
func (s *service) mutate(ctx context.Context, staffID string, fn func(b *selection.Builder) error) (*selection.Builder, error) {
	builder, err := s.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if err := fn(builder); err != nil {
		return nil, err
	}
	if err := s.save(ctx, staffID, builder); err != nil {
		return nil, err
	}
	return builder, nil
}

func (s *service) save(ctx context.Context, staffID string, builder *selection.Builder) error {
	key, err := s.key(staffID)
	if err != nil {
		return err
	}
	if builder.IsEmpty() {
		if err := s.store.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	}
	payload, err := json.Marshal(builder)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Set(ctx, key, string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *service) key(staffID string) (string, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity required")
	}
	return s.store.CartKey(staffID), nil
}
