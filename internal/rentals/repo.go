package rentals

import (
	"context"

	"github.com/angelmondragon/costumerental-backend/internal/repo"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for rental units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rental *models.Rental) (*models.Rental, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	List(ctx context.Context, filters ListFilters) ([]models.Rental, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.RentalStatus, updates map[string]any) (bool, error)
}

// ListFilters narrow the stored rows. Effective-status filtering happens in
// the service because overdue is not a stored state.
type ListFilters struct {
	CustomerID      *uuid.UUID
	CostumeID       *uuid.UUID
	PersistedStatus []enums.RentalStatus
}

type repository struct {
	repo.Base
}

// NewRepository builds a rentals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, rental *models.Rental) (*models.Rental, error) {
	if err := r.DB(ctx).Omit("Customer", "Costume").Create(rental).Error; err != nil {
		return nil, err
	}
	return rental, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	err := r.DB(ctx).
		Preload("Customer").
		Preload("Costume").
		Where("id = ?", id).
		Take(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Rental, error) {
	query := r.DB(ctx).
		Preload("Customer").
		Preload("Costume")
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.CostumeID != nil {
		query = query.Where("costume_id = ?", *filters.CostumeID)
	}
	if len(filters.PersistedStatus) > 0 {
		query = query.Where("status IN ?", filters.PersistedStatus)
	}

	var rentals []models.Rental
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

// UpdateStatus applies updates only while the row is still in one of the
// from states. It reports false when no row matched.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.RentalStatus, updates map[string]any) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Rental{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
