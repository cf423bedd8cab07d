package enums

import "fmt"

// UnitFailureReason classifies why a single rental unit could not be created.
type UnitFailureReason string

const (
	UnitFailureNetworkUnavailable UnitFailureReason = "network_unavailable"
	UnitFailureBadRequest         UnitFailureReason = "bad_request"
	UnitFailureNotFound           UnitFailureReason = "not_found"
	UnitFailureConflict           UnitFailureReason = "conflict"
	UnitFailureUnknown            UnitFailureReason = "unknown"
)

var validUnitFailureReasons = []UnitFailureReason{
	UnitFailureNetworkUnavailable,
	UnitFailureBadRequest,
	UnitFailureNotFound,
	UnitFailureConflict,
	UnitFailureUnknown,
}

// String implements fmt.Stringer.
func (u UnitFailureReason) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitFailureReason.
func (u UnitFailureReason) IsValid() bool {
	for _, candidate := range validUnitFailureReasons {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitFailureReason converts raw input into a UnitFailureReason.
func ParseUnitFailureReason(value string) (UnitFailureReason, error) {
	for _, candidate := range validUnitFailureReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit failure reason %q", value)
}
