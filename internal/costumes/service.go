package costumes

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes the costume catalog with live availability.
type Service interface {
	List(ctx context.Context) ([]models.Costume, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Costume, error)
	Create(ctx context.Context, input CreateInput) (*models.Costume, error)
	Upsert(ctx context.Context, input CreateInput) (*models.Costume, bool, error)
}

// CreateInput describes a catalog entry for one size of a costume.
type CreateInput struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Category      string          `json:"category" validate:"max=60"`
	Size          string          `json:"size" validate:"required,max=20"`
	Description   *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	SellPrice     decimal.Decimal `json:"sell_price" validate:"gte=0"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("costumes repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Costume, error) {
	costumes, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list costumes")
	}
	return costumes, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Costume, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "costume id required")
	}
	costume, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "costume not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load costume")
	}
	return costume, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Costume, error) {
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, toModel(input))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "costume with this name and size already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create costume")
	}
	return created, nil
}

// Upsert creates the costume or refreshes price, category and stock on the
// existing (name, size) entry. The bool reports whether a row was created.
func (s *service) Upsert(ctx context.Context, input CreateInput) (*models.Costume, bool, error) {
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByNameAndSize(ctx, input.Name, input.Size)
	switch {
	case err == nil:
		updates := map[string]any{
			"category":       input.Category,
			"sell_price":     input.SellPrice,
			"stock_quantity": input.StockQuantity,
			"description":    input.Description,
		}
		if err := s.repo.Update(ctx, existing.ID, updates); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update costume")
		}
		refreshed, err := s.Get(ctx, existing.ID)
		return refreshed, false, err
	case db.IsNotFound(err):
		created, err := s.Create(ctx, input)
		return created, err == nil, err
	default:
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup costume")
	}
}

func normalize(input CreateInput) CreateInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Size = strings.ToUpper(strings.TrimSpace(input.Size))
	return input
}

func validate(input CreateInput) error {
	switch {
	case input.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case input.Size == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "size is required")
	case input.SellPrice.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "sell price cannot be negative")
	case input.StockQuantity < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	return nil
}

func toModel(input CreateInput) *models.Costume {
	return &models.Costume{
		Name:          input.Name,
		Category:      input.Category,
		Size:          input.Size,
		Description:   input.Description,
		SellPrice:     input.SellPrice,
		StockQuantity: input.StockQuantity,
	}
}
