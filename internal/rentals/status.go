package rentals

import (
	"time"

	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
)

// ActiveAndPastDue reports whether a rental is persisted ACTIVE and now is
// strictly after the start (UTC) of its expected return date. Every overdue
// count, filter and badge goes through this predicate.
func ActiveAndPastDue(rental models.Rental, now time.Time) bool {
	if rental.Status != enums.RentalStatusActive {
		return false
	}
	if rental.ExpectedReturnDate.IsZero() {
		return false
	}
	return now.After(rental.ExpectedReturnDate.Time())
}

// EffectiveStatus is the status shown to staff: OVERDUE for active rentals
// past due, otherwise the persisted status. It never mutates the rental.
func EffectiveStatus(rental models.Rental, now time.Time) enums.RentalStatus {
	if ActiveAndPastDue(rental, now) {
		return enums.RentalStatusOverdue
	}
	return rental.Status
}

// DaysOverdue is the number of started days since the expected return date,
// or 0 when the rental is not overdue.
func DaysOverdue(rental models.Rental, now time.Time) int {
	if !ActiveAndPastDue(rental, now) {
		return 0
	}
	late := now.Sub(rental.ExpectedReturnDate.Time())
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// FilterByEffectiveStatus keeps the rentals whose effective status matches.
func FilterByEffectiveStatus(rentals []models.Rental, status enums.RentalStatus, now time.Time) []models.Rental {
	out := make([]models.Rental, 0, len(rentals))
	for _, rental := range rentals {
		if EffectiveStatus(rental, now) == status {
			out = append(out, rental)
		}
	}
	return out
}

// StatusCounts tallies rentals by effective status.
type StatusCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Overdue   int `json:"overdue"`
	Returned  int `json:"returned"`
	Cancelled int `json:"cancelled"`
}

// CountByEffectiveStatus tallies rentals by effective status. Active excludes
// overdue rentals.
func CountByEffectiveStatus(rentals []models.Rental, now time.Time) StatusCounts {
	counts := StatusCounts{Total: len(rentals)}
	for _, rental := range rentals {
		switch EffectiveStatus(rental, now) {
		case enums.RentalStatusActive:
			counts.Active++
		case enums.RentalStatusOverdue:
			counts.Overdue++
		case enums.RentalStatusReturned:
			counts.Returned++
		case enums.RentalStatusCancelled:
			counts.Cancelled++
		}
	}
	return counts
}

// View is a rental decorated with its effective status for API responses.
type View struct {
	models.Rental
	EffectiveStatus enums.RentalStatus `json:"effective_status"`
	DaysOverdue     int                `json:"days_overdue,omitempty"`
}

// NewViews decorates rentals with their effective status as of now.
func NewViews(rentals []models.Rental, now time.Time) []View {
	out := make([]View, 0, len(rentals))
	for _, rental := range rentals {
		out = append(out, NewView(rental, now))
	}
	return out
}

// NewView decorates one rental with its effective status as of now.
func NewView(rental models.Rental, now time.Time) View {
	return View{
		Rental:          rental,
		EffectiveStatus: EffectiveStatus(rental, now),
		DaysOverdue:     DaysOverdue(rental, now),
	}
}
