package enums

import (
	"fmt"
	"strings"
)

// RentalStatus is the persisted lifecycle state of a single rental unit.
// RentalStatusOverdue is never written by this service; it is derived at read
// time and only appears in storage on legacy rows.
type RentalStatus string

const (
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusReturned  RentalStatus = "RETURNED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
	RentalStatusOverdue   RentalStatus = "OVERDUE"
)

var validRentalStatuses = []RentalStatus{
	RentalStatusActive,
	RentalStatusReturned,
	RentalStatusCancelled,
	RentalStatusOverdue,
}

// String implements fmt.Stringer.
func (r RentalStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalStatus.
func (r RentalStatus) IsValid() bool {
	for _, candidate := range validRentalStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (r RentalStatus) IsTerminal() bool {
	return r == RentalStatusReturned || r == RentalStatusCancelled
}

// ParseRentalStatus converts raw input into a RentalStatus. Matching is case
// insensitive so query strings like ?status=overdue work.
func ParseRentalStatus(value string) (RentalStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validRentalStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental status %q", value)
}
