package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
)

type rentalLister interface {
	List(ctx context.Context, query rentals.ListQuery) ([]models.Rental, error)
}

// Service builds reports from a fresh rental snapshot on every call.
type Service interface {
	CustomerGroups(ctx context.Context, sortByTotal bool) ([]CustomerRentalGroup, error)
	Dashboard(ctx context.Context) (Dashboard, error)
}

type service struct {
	rentals rentalLister
	now     func() time.Time
}

// NewService builds the reports service.
func NewService(lister rentalLister, now func() time.Time) (Service, error) {
	if lister == nil {
		return nil, fmt.Errorf("rental lister required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{rentals: lister, now: now}, nil
}

func (s *service) CustomerGroups(ctx context.Context, sortByTotal bool) ([]CustomerRentalGroup, error) {
	list, err := s.rentals.List(ctx, rentals.ListQuery{})
	if err != nil {
		return nil, err
	}
	groups := GroupByCustomer(list)
	if sortByTotal {
		SortGroupsByTotal(groups)
	}
	return groups, nil
}

func (s *service) Dashboard(ctx context.Context) (Dashboard, error) {
	list, err := s.rentals.List(ctx, rentals.ListQuery{})
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(list, s.now()), nil
}
