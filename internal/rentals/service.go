package rentals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the lifecycle of individual rental units.
type Service interface {
	CreateRental(ctx context.Context, input CreateInput) (*models.Rental, error)
	Return(ctx context.Context, id uuid.UUID, actualReturnDate *types.Date) (*models.Rental, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	List(ctx context.Context, query ListQuery) ([]models.Rental, error)
}

// CreateInput requests one rental unit.
type CreateInput struct {
	CustomerID         uuid.UUID  `json:"customer_id"`
	CostumeID          uuid.UUID  `json:"costume_id"`
	RentalDate         types.Date `json:"rental_date"`
	ExpectedReturnDate types.Date `json:"expected_return_date"`
	Notes              *string    `json:"notes,omitempty"`
}

// ListQuery filters the rental list. Status is matched against the effective
// status, so "OVERDUE" selects active rentals past due.
type ListQuery struct {
	Status     *enums.RentalStatus
	CustomerID *uuid.UUID
}

// openStatuses are the persisted states a rental can still leave. Legacy
// OVERDUE rows are treated like ACTIVE.
var openStatuses = []enums.RentalStatus{enums.RentalStatusActive, enums.RentalStatusOverdue}

type service struct {
	repo      Repository
	costumes  costumes.Repository
	customers customers.Repository
	tx        txRunner
	now       func() time.Time
	logg      *logger.Logger
}

// ServiceParams wires the rental service.
type ServiceParams struct {
	Repo      Repository
	Costumes  costumes.Repository
	Customers customers.Repository
	Tx        txRunner
	Now       func() time.Time
	Logger    *logger.Logger
}

// NewService builds the rentals service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	if params.Costumes == nil {
		return nil, fmt.Errorf("costumes repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		costumes:  params.Costumes,
		customers: params.Customers,
		tx:        params.Tx,
		now:       now,
		logg:      params.Logger,
	}, nil
}

func (s *service) CreateRental(ctx context.Context, input CreateInput) (*models.Rental, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var created *models.Rental
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.customers.WithTx(tx).FindByID(ctx, input.CustomerID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}

		costume, err := s.costumes.WithTx(tx).FindByID(ctx, input.CostumeID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "costume not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load costume")
		}
		if costume.AvailableStock < 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "costume is out of stock").
				WithDetails(map[string]any{"costume_id": costume.ID, "available_stock": costume.AvailableStock})
		}

		rental, err := s.repo.WithTx(tx).Create(ctx, &models.Rental{
			CustomerID:         input.CustomerID,
			CostumeID:          input.CostumeID,
			RentalDate:         input.RentalDate,
			ExpectedReturnDate: input.ExpectedReturnDate,
			Status:             enums.RentalStatusActive,
			Notes:              trimNotes(input.Notes),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rental")
		}
		created = rental
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The row is committed; a failed reload only loses the preloaded
	// customer and costume, not the rental.
	reloaded, err := s.Get(ctx, created.ID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"rental_id": created.ID.String(),
				"error":     err.Error(),
			}), "reload created rental failed")
		}
		return created, nil
	}
	return reloaded, nil
}

func (s *service) Return(ctx context.Context, id uuid.UUID, actualReturnDate *types.Date) (*models.Rental, error) {
	rental, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	returned := types.DateOf(s.now().UTC())
	if actualReturnDate != nil && !actualReturnDate.IsZero() {
		returned = *actualReturnDate
	}
	if returned.Before(rental.RentalDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return date cannot be before rental date")
	}

	return s.transition(ctx, rental, enums.RentalStatusReturned, map[string]any{
		"status":             enums.RentalStatusReturned,
		"actual_return_date": returned,
	})
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	rental, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, rental, enums.RentalStatusCancelled, map[string]any{
		"status": enums.RentalStatusCancelled,
	})
}

func (s *service) transition(ctx context.Context, rental *models.Rental, target enums.RentalStatus, updates map[string]any) (*models.Rental, error) {
	if !isOpen(rental.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("rental is %s", strings.ToLower(rental.Status.String()))).
			WithDetails(map[string]any{"status": rental.Status, "target": target})
	}
	ok, err := s.repo.UpdateStatus(ctx, rental.ID, openStatuses, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rental status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rental changed concurrently")
	}
	return s.Get(ctx, rental.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental id required")
	}
	rental, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rental not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rental")
	}
	return rental, nil
}

func (s *service) List(ctx context.Context, query ListQuery) ([]models.Rental, error) {
	rentals, err := s.repo.List(ctx, ListFilters{CustomerID: query.CustomerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rentals")
	}
	if query.Status == nil {
		return rentals, nil
	}
	return FilterByEffectiveStatus(rentals, *query.Status, s.now()), nil
}

func validateCreate(input CreateInput) error {
	switch {
	case input.CustomerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	case input.CostumeID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "costume id required")
	case input.RentalDate.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "rental date required")
	case input.ExpectedReturnDate.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "expected return date required")
	case input.ExpectedReturnDate.Before(input.RentalDate):
		return pkgerrors.New(pkgerrors.CodeValidation, "expected return date cannot be before rental date")
	}
	return nil
}

func isOpen(status enums.RentalStatus) bool {
	for _, candidate := range openStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
