package costumes

import (
	"context"

	"github.com/angelmondragon/costumerental-backend/internal/repo"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the costume catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Costume, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Costume, error)
	FindByNameAndSize(ctx context.Context, name, size string) (*models.Costume, error)
	Create(ctx context.Context, costume *models.Costume) (*models.Costume, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a costume repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// withAvailability selects costumes joined with their count of rentals still
// out. Legacy rows persisted as OVERDUE are still out and count as well.
func (r *repository) withAvailability(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Model(&models.Costume{}).
		Select("costumes.*, COALESCE(a.active_count, 0) AS active_rentals").
		Joins(
			"LEFT JOIN (SELECT costume_id, COUNT(*) AS active_count FROM rentals WHERE status IN (?, ?) GROUP BY costume_id) a ON a.costume_id = costumes.id",
			enums.RentalStatusActive, enums.RentalStatusOverdue,
		)
}

func (r *repository) List(ctx context.Context) ([]models.Costume, error) {
	var costumes []models.Costume
	err := r.withAvailability(ctx).
		Order("costumes.name ASC").
		Order("costumes.size ASC").
		Find(&costumes).Error
	if err != nil {
		return nil, err
	}
	for i := range costumes {
		costumes[i].ComputeAvailability()
	}
	return costumes, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Costume, error) {
	var costume models.Costume
	err := r.withAvailability(ctx).
		Where("costumes.id = ?", id).
		Take(&costume).Error
	if err != nil {
		return nil, err
	}
	costume.ComputeAvailability()
	return &costume, nil
}

func (r *repository) FindByNameAndSize(ctx context.Context, name, size string) (*models.Costume, error) {
	var costume models.Costume
	err := r.DB(ctx).
		Where("name = ? AND size = ?", name, size).
		Take(&costume).Error
	if err != nil {
		return nil, err
	}
	return &costume, nil
}

func (r *repository) Create(ctx context.Context, costume *models.Costume) (*models.Costume, error) {
	if err := r.DB(ctx).Create(costume).Error; err != nil {
		return nil, err
	}
	costume.ComputeAvailability()
	return costume, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.DB(ctx).
		Model(&models.Costume{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
