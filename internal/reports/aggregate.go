package reports

import (
	"sort"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRentalGroup summarizes every rental booked for one customer.
type CustomerRentalGroup struct {
	CustomerID     uuid.UUID        `json:"customer_id"`
	Customer       *models.Customer `json:"customer,omitempty"`
	Rentals        []models.Rental  `json:"rentals"`
	ActiveCount    int              `json:"active_count"`
	ReturnedCount  int              `json:"returned_count"`
	CancelledCount int              `json:"cancelled_count"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
}

// GroupByCustomer buckets rentals per customer in order of first appearance.
// Rentals without a resolvable customer are skipped. Persisted OVERDUE rows
// count as active; overdue is otherwise derived and never bucketed here.
func GroupByCustomer(list []models.Rental) []CustomerRentalGroup {
	groups := make([]CustomerRentalGroup, 0)
	index := make(map[uuid.UUID]int)

	for _, rental := range list {
		customerID, ok := rental.ResolvedCustomerID()
		if !ok {
			continue
		}
		pos, seen := index[customerID]
		if !seen {
			pos = len(groups)
			index[customerID] = pos
			groups = append(groups, CustomerRentalGroup{
				CustomerID:  customerID,
				Customer:    rental.Customer,
				TotalAmount: decimal.Zero,
			})
		}
		group := &groups[pos]
		if group.Customer == nil && rental.Customer != nil {
			group.Customer = rental.Customer
		}
		group.Rentals = append(group.Rentals, rental)

		switch rental.Status {
		case enums.RentalStatusActive, enums.RentalStatusOverdue:
			group.ActiveCount++
		case enums.RentalStatusReturned:
			group.ReturnedCount++
		case enums.RentalStatusCancelled:
			group.CancelledCount++
		}
		group.TotalAmount = group.TotalAmount.Add(RentalAmount(rental))
	}
	return groups
}

// RentalAmount is the costume's sell price times the billed days. A rental
// without its costume loaded contributes nothing.
func RentalAmount(rental models.Rental) decimal.Decimal {
	if rental.Costume == nil {
		return decimal.Zero
	}
	return rental.Costume.SellPrice.Mul(decimal.NewFromInt(int64(BilledDays(rental))))
}

// BilledDays is the whole days between the rental date and the actual return
// date, or the expected one while still out. The minimum is one day.
func BilledDays(rental models.Rental) int {
	end := rental.ExpectedReturnDate
	if rental.ActualReturnDate != nil && !rental.ActualReturnDate.IsZero() {
		end = *rental.ActualReturnDate
	}
	return billedDays(rental.RentalDate, end)
}

func billedDays(start, end types.Date) int {
	if start.IsZero() || end.IsZero() {
		return 1
	}
	elapsed := end.Time().Sub(start.Time())
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		return 1
	}
	return days
}

// SortGroupsByTotal orders groups by total amount, highest first. Ties keep
// their first-appearance order.
func SortGroupsByTotal(groups []CustomerRentalGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalAmount.GreaterThan(groups[j].TotalAmount)
	})
}

// Dashboard is the effective status tally shown on the staff home screen.
type Dashboard struct {
	rentals.StatusCounts
	Customers     int             `json:"customers"`
	ActiveRevenue decimal.Decimal `json:"active_revenue"`
	AsOf          time.Time       `json:"as_of"`
}

// Summarize tallies rentals by effective status as of now.
func Summarize(list []models.Rental, now time.Time) Dashboard {
	dash := Dashboard{
		StatusCounts:  rentals.CountByEffectiveStatus(list, now),
		ActiveRevenue: decimal.Zero,
		AsOf:          now.UTC(),
	}
	customers := make(map[uuid.UUID]struct{})
	for _, rental := range list {
		if id, ok := rental.ResolvedCustomerID(); ok {
			customers[id] = struct{}{}
		}
		if rental.Status == enums.RentalStatusActive || rental.Status == enums.RentalStatusOverdue {
			dash.ActiveRevenue = dash.ActiveRevenue.Add(RentalAmount(rental))
		}
	}
	dash.Customers = len(customers)
	return dash
}
