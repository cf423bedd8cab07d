package checkout

import (
	"context"
	"crypto/rand"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/internal/selection"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
	"github.com/angelmondragon/costumerental-backend/pkg/tracing"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type customerCreator interface {
	CreateCustomer(ctx context.Context, input customers.CreateInput) (*models.Customer, error)
}

type rentalCreator interface {
	CreateRental(ctx context.Context, input rentals.CreateInput) (*models.Rental, error)
}

type cartStore interface {
	Get(ctx context.Context, staffID string) (*selection.Builder, error)
	Clear(ctx context.Context, staffID string) error
}

// Service turns a cart into one customer and a rental per unit.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Outcome, error)
	Checkout(ctx context.Context, staffID string, input CheckoutInput) (*Outcome, error)
}

// SubmitInput is everything a batch needs: the cart lines, the customer form
// and the dates and notes shared by every unit.
type SubmitInput struct {
	Items              []selection.Item
	Customer           customers.CreateInput
	RentalDate         types.Date
	ExpectedReturnDate types.Date
	Notes              string
}

// CheckoutInput is the checkout form; the items come from the staff cart.
type CheckoutInput struct {
	Customer           customers.CreateInput `json:"customer"`
	RentalDate         types.Date            `json:"rental_date"`
	ExpectedReturnDate types.Date            `json:"expected_return_date"`
	Notes              string                `json:"notes"`
}

// Options bound the collaborator calls. Zero values leave them unbounded.
type Options struct {
	UnitTimeout   time.Duration
	BatchDeadline time.Duration
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Customers customerCreator
	Rentals   rentalCreator
	Carts     cartStore
	Logger    *logger.Logger
	Metrics   *metrics.ProvisioningMetrics
	Options   Options
	Now       func() time.Time
}

type service struct {
	customers customerCreator
	rentals   rentalCreator
	carts     cartStore
	logg      *logger.Logger
	metrics   *metrics.ProvisioningMetrics
	opts      Options
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Customers == nil {
		return nil, fmt.Errorf("customer creator required")
	}
	if params.Rentals == nil {
		return nil, fmt.Errorf("rental creator required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Options.UnitTimeout < 0 || params.Options.BatchDeadline < 0 {
		return nil, fmt.Errorf("provisioning timeouts cannot be negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		customers: params.Customers,
		rentals:   params.Rentals,
		carts:     params.Carts,
		logg:      params.Logger,
		metrics:   params.Metrics,
		opts:      params.Options,
		now:       now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*Outcome, error) {
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	// Once started, a batch runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	if s.opts.BatchDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.BatchDeadline)
		defer cancel()
	}

	batchID := s.newBatchID()
	ctx = s.logg.WithBatchID(ctx, batchID)
	ctx, span := tracing.AddSpan(ctx, "checkout.submit", attribute.String("batch_id", batchID))
	defer span.End()

	customer, err := s.customers.CreateCustomer(ctx, input.Customer)
	if err == nil && customer == nil {
		err = pkgerrors.New(pkgerrors.CodeInternal, "customer service returned no customer")
	}
	if err != nil {
		s.logg.Error(ctx, "checkout customer creation failed", err)
		s.metrics.IncBatch("customer_creation_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "customer creation failed")
		return nil, customerCreationFailed(err)
	}
	ctx = s.logg.WithCustomerID(ctx, customer.ID.String())

	requests := Expand(input.Items, customer.ID, input.RentalDate, input.ExpectedReturnDate, input.Notes)
	outcome := &Outcome{
		BatchID:    batchID,
		CustomerID: customer.ID,
		Requested:  len(requests),
		RentalIDs:  make([]uuid.UUID, 0, len(requests)),
		Failures:   []UnitFailure{},
	}
	span.SetAttributes(attribute.Int("units", len(requests)))

	for _, req := range requests {
		s.runUnit(ctx, outcome, req)
	}

	status := outcome.Status()
	s.metrics.IncBatch(status.String())
	span.SetAttributes(
		attribute.String("status", status.String()),
		attribute.Int("succeeded", outcome.Succeeded),
		attribute.Int("failed", outcome.Failed),
	)
	summaryCtx := s.logg.WithFields(ctx, map[string]any{
		"status":    status,
		"requested": outcome.Requested,
		"succeeded": outcome.Succeeded,
		"failed":    outcome.Failed,
	})
	if outcome.Failed > 0 {
		s.logg.Warn(summaryCtx, "checkout batch finished with failures")
	} else {
		s.logg.Info(summaryCtx, "checkout batch finished")
	}
	return outcome, nil
}

// runUnit issues one rental request and records its result. It never returns
// an error so the remaining units are always attempted.
func (s *service) runUnit(ctx context.Context, outcome *Outcome, req UnitRequest) {
	unitCtx := ctx
	if s.opts.UnitTimeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(ctx, s.opts.UnitTimeout)
		defer cancel()
	}
	unitCtx, span := tracing.AddSpan(unitCtx, "checkout.unit",
		attribute.Int("unit.index", req.Index),
		attribute.String("costume_id", req.CostumeID.String()),
		attribute.String("size", req.Size),
	)
	defer span.End()

	logCtx := s.logg.WithFields(unitCtx, map[string]any{
		"unit_index": req.Index,
		"item_index": req.ItemIndex,
		"costume_id": req.CostumeID.String(),
		"size":       req.Size,
	})

	started := time.Now()
	rental, err := s.createRental(unitCtx, req)
	s.metrics.ObserveUnit(time.Since(started))

	if err != nil {
		failure := outcome.recordFailure(req, err)
		s.metrics.IncUnitFailure(failure.Reason.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, failure.Reason.String())
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
			"reason": failure.Reason,
			"error":  err.Error(),
		}), "rental unit failed")
		return
	}

	outcome.recordSuccess(rental.ID)
	s.metrics.IncUnitSuccess()
	span.SetAttributes(attribute.String("rental_id", rental.ID.String()))
	s.logg.Info(s.logg.WithRentalID(logCtx, rental.ID.String()), "rental unit created")
}

func (s *service) createRental(ctx context.Context, req UnitRequest) (*models.Rental, error) {
	if err := ctx.Err(); err != nil {
		return nil, deadlineError(err)
	}
	rental, err := s.rentals.CreateRental(ctx, req.Input)
	if err != nil {
		if pkgerrors.As(err) == nil && (ctx.Err() != nil || stdErrors.Is(err, context.DeadlineExceeded)) {
			return nil, deadlineError(err)
		}
		return nil, err
	}
	if rental == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "rental service returned no rental")
	}
	return rental, nil
}

func deadlineError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rental service did not respond in time")
}

func (s *service) Checkout(ctx context.Context, staffID string, input CheckoutInput) (*Outcome, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity required")
	}
	cart, err := s.carts.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.Submit(ctx, SubmitInput{
		Items:              cart.Snapshot(),
		Customer:           input.Customer,
		RentalDate:         input.RentalDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
		Notes:              input.Notes,
	})
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return nil, err
	}

	ctx = s.logg.WithStaffID(ctx, staffID)
	if clearErr := s.carts.Clear(ctx, staffID); clearErr != nil {
		s.logg.Error(ctx, "failed to clear cart after checkout", clearErr)
	}
	return outcome, err
}

func (s *service) newBatchID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), ulid.Monotonic(rand.Reader, 0)).String()
}

func validateSubmit(input SubmitInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for i, item := range input.Items {
		if item.Costume.ID == uuid.Nil || item.Quantity < 1 || strings.TrimSpace(item.Size) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item is invalid").
				WithDetails(map[string]any{"index": i})
		}
	}

	details := map[string]string{}
	if strings.TrimSpace(input.Customer.FirstName) == "" {
		details["first_name"] = "required"
	}
	if strings.TrimSpace(input.Customer.Phone) == "" {
		details["phone"] = "required"
	}
	if input.RentalDate.IsZero() {
		details["rental_date"] = "required"
	}
	if input.ExpectedReturnDate.IsZero() {
		details["expected_return_date"] = "required"
	} else if !input.RentalDate.IsZero() && input.ExpectedReturnDate.Before(input.RentalDate) {
		details["expected_return_date"] = "must not be before rental_date"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout form is invalid").WithDetails(details)
	}
	return nil
}
