package checkout

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ErrCustomerCreationFailed is returned by Submit when the single customer
// record for the batch could not be created. No rentals were attempted.
var ErrCustomerCreationFailed = pkgerrors.New(pkgerrors.CodeCustomerCreation, "customer could not be created")

func customerCreationFailed(cause error) error {
	return &customerCreationError{cause: cause}
}

type customerCreationError struct {
	cause error
}

func (e *customerCreationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCustomerCreationFailed.Message(), e.cause)
}

// Unwrap exposes both the sentinel and the collaborator error.
func (e *customerCreationError) Unwrap() []error {
	return []error{ErrCustomerCreationFailed, e.cause}
}

// UnitFailure records one rental unit that could not be created.
type UnitFailure struct {
	Index     int                     `json:"index"`
	ItemIndex int                     `json:"item_index"`
	UnitIndex int                     `json:"unit_index"`
	CostumeID uuid.UUID               `json:"costume_id"`
	Size      string                  `json:"size"`
	Reason    enums.UnitFailureReason `json:"reason"`
	Message   string                  `json:"message"`
	Retryable bool                    `json:"retryable"`

	err error
}

// Outcome is the result of a batch submission once every unit was attempted.
type Outcome struct {
	BatchID    string        `json:"batch_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Requested  int           `json:"requested"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	RentalIDs  []uuid.UUID   `json:"rental_ids"`
	Failures   []UnitFailure `json:"failures"`
}

// Status classifies the batch.
func (o *Outcome) Status() enums.ProvisionStatus {
	switch {
	case o.Requested > 0 && o.Failed == 0:
		return enums.ProvisionStatusFullSuccess
	case o.Succeeded > 0:
		return enums.ProvisionStatusPartialSuccess
	default:
		return enums.ProvisionStatusFailed
	}
}

// Message is the summary shown to staff after submission.
func (o *Outcome) Message() string {
	switch o.Status() {
	case enums.ProvisionStatusFullSuccess:
		return fmt.Sprintf("%d %s created", o.Succeeded, plural(o.Succeeded, "rental", "rentals"))
	case enums.ProvisionStatusPartialSuccess:
		return fmt.Sprintf("%d of %d rentals created; %d failed", o.Succeeded, o.Requested, o.Failed)
	default:
		return fmt.Sprintf("no rentals created; %d %s failed", o.Failed, plural(o.Failed, "unit", "units"))
	}
}

// Err combines the per-unit errors, or returns nil when every unit succeeded.
func (o *Outcome) Err() error {
	var combined error
	for _, failure := range o.Failures {
		combined = multierr.Append(combined, fmt.Errorf("unit %d (%s): %w", failure.Index, failure.Size, failure.err))
	}
	return combined
}

// MarshalJSON adds the derived status and message to the payload.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	return json.Marshal(struct {
		alias
		Status  enums.ProvisionStatus `json:"status"`
		Message string                `json:"message"`
	}{
		alias:   alias(o),
		Status:  o.Status(),
		Message: o.Message(),
	})
}

func (o *Outcome) recordSuccess(id uuid.UUID) {
	o.Succeeded++
	o.RentalIDs = append(o.RentalIDs, id)
}

func (o *Outcome) recordFailure(req UnitRequest, err error) UnitFailure {
	failure := UnitFailure{
		Index:     req.Index,
		ItemIndex: req.ItemIndex,
		UnitIndex: req.UnitIndex,
		CostumeID: req.CostumeID,
		Size:      req.Size,
		Reason:    ClassifyFailure(err),
		Message:   failureMessage(err),
		Retryable: pkgerrors.IsRetryable(err),
		err:       err,
	}
	o.Failed++
	o.Failures = append(o.Failures, failure)
	return failure
}

// ClassifyFailure maps a collaborator error onto a unit failure reason.
func ClassifyFailure(err error) enums.UnitFailureReason {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeDependency:
		return enums.UnitFailureNetworkUnavailable
	case pkgerrors.CodeValidation:
		return enums.UnitFailureBadRequest
	case pkgerrors.CodeNotFound:
		return enums.UnitFailureNotFound
	case pkgerrors.CodeConflict, pkgerrors.CodeStateConflict:
		return enums.UnitFailureConflict
	default:
		return enums.UnitFailureUnknown
	}
}

func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
