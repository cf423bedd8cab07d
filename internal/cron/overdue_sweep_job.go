package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
)

type openRentalReader interface {
	List(ctx context.Context, filters rentals.ListFilters) ([]models.Rental, error)
}

// OverdueSweepJobParams configure the overdue sweep.
type OverdueSweepJobParams struct {
	Logger  *logger.Logger
	Rentals openRentalReader
	Metrics *metrics.RentalMetrics
	Now     func() time.Time
}

// NewOverdueSweepJob builds the job that reports rentals past due. It only
// reads: overdue is derived at read time and never written back.
func NewOverdueSweepJob(params OverdueSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rentals == nil {
		return nil, fmt.Errorf("rental reader required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &overdueSweepJob{
		logg:    params.Logger,
		rentals: params.Rentals,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

type overdueSweepJob struct {
	logg    *logger.Logger
	rentals openRentalReader
	metrics *metrics.RentalMetrics
	now     func() time.Time
}

func (j *overdueSweepJob) Name() string { return "overdue-sweep" }

func (j *overdueSweepJob) Run(ctx context.Context) error {
	open, err := j.rentals.List(ctx, rentals.ListFilters{
		PersistedStatus: []enums.RentalStatus{enums.RentalStatusActive, enums.RentalStatusOverdue},
	})
	if err != nil {
		return fmt.Errorf("list open rentals: %w", err)
	}

	now := j.now()
	for _, rental := range open {
		if !rentals.ActiveAndPastDue(rental, now) {
			continue
		}
		fields := map[string]any{
			"rental_id":            rental.ID.String(),
			"customer_id":          rental.CustomerID.String(),
			"costume_id":           rental.CostumeID.String(),
			"expected_return_date": rental.ExpectedReturnDate.String(),
			"days_overdue":         rentals.DaysOverdue(rental, now),
		}
		if rental.Customer != nil {
			fields["customer_name"] = rental.Customer.FullName()
			fields["customer_phone"] = rental.Customer.Phone
		}
		if rental.Costume != nil {
			fields["costume"] = rental.Costume.Name
			fields["size"] = rental.Costume.Size
		}
		j.logg.Warn(j.logg.WithFields(ctx, fields), "rental overdue")
	}

	counts := rentals.CountByEffectiveStatus(open, now)
	j.metrics.SetCounts(counts.Active, counts.Overdue)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"active":  counts.Active,
		"overdue": counts.Overdue,
	}), "overdue sweep complete")
	return nil
}
