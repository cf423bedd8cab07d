package enums

import "fmt"

// ProvisionStatus summarizes a checkout batch.
type ProvisionStatus string

const (
	ProvisionStatusFullSuccess    ProvisionStatus = "full_success"
	ProvisionStatusPartialSuccess ProvisionStatus = "partial_success"
	ProvisionStatusFailed         ProvisionStatus = "failed"
)

var validProvisionStatuses = []ProvisionStatus{
	ProvisionStatusFullSuccess,
	ProvisionStatusPartialSuccess,
	ProvisionStatusFailed,
}

// String implements fmt.Stringer.
func (p ProvisionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProvisionStatus.
func (p ProvisionStatus) IsValid() bool {
	for _, candidate := range validProvisionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProvisionStatus converts raw input into a ProvisionStatus.
func ParseProvisionStatus(value string) (ProvisionStatus, error) {
	for _, candidate := range validProvisionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid provision status %q", value)
}
