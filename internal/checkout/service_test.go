package checkout

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/internal/selection"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/metrics"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type stubCustomers struct {
	calls  int
	err    error
	inputs []customers.CreateInput
}

func (s *stubCustomers) CreateCustomer(ctx context.Context, input customers.CreateInput) (*models.Customer, error) {
	s.calls++
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Customer{ID: uuid.New(), FirstName: input.FirstName, Phone: input.Phone}, nil
}

type stubRentals struct {
	calls  []rentals.CreateInput
	failAt map[int]error
	delay  time.Duration
}

func (s *stubRentals) CreateRental(ctx context.Context, input rentals.CreateInput) (*models.Rental, error) {
	index := len(s.calls)
	s.calls = append(s.calls, input)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.failAt[index]; ok {
		return nil, err
	}
	return &models.Rental{ID: uuid.New(), CustomerID: input.CustomerID, CostumeID: input.CostumeID, Status: enums.RentalStatusActive}, nil
}

type stubCarts struct {
	cart     *selection.Builder
	getErr   error
	cleared  int
	clearErr error
}

func (s *stubCarts) Get(ctx context.Context, staffID string) (*selection.Builder, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.cart == nil {
		return selection.New(), nil
	}
	return s.cart, nil
}

func (s *stubCarts) Clear(ctx context.Context, staffID string) error {
	s.cleared++
	return s.clearErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
}

func newTestService(t *testing.T, cust *stubCustomers, rent *stubRentals, carts *stubCarts, opts Options) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Customers: cust,
		Rentals:   rent,
		Carts:     carts,
		Logger:    testLogger(),
		Metrics:   metrics.NewProvisioningMetrics(prometheus.NewRegistry()),
		Options:   opts,
		Now:       func() time.Time { return time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func costume(name string) selection.Costume {
	return selection.Costume{ID: uuid.New(), Name: name, SellPrice: decimal.NewFromInt(25), AvailableStock: 10}
}

func threeLineCart() []selection.Item {
	return []selection.Item{
		{Costume: costume("Pirate"), Size: "M", Quantity: 2},
		{Costume: costume("Witch"), Size: "S", Quantity: 1},
		{Costume: costume("Vampire"), Size: "L", Quantity: 3},
	}
}

func validInput(items []selection.Item) SubmitInput {
	return SubmitInput{
		Items:              items,
		Customer:           customers.CreateInput{FirstName: "Rosa", Phone: "555-0110"},
		RentalDate:         types.MustParseDate("2024-10-01"),
		ExpectedReturnDate: types.MustParseDate("2024-10-04"),
		Notes:              "party",
	}
}

func TestSubmitExpandsUnitsInCartOrder(t *testing.T) {
	cust := &stubCustomers{}
	rent := &stubRentals{}
	svc := newTestService(t, cust, rent, &stubCarts{}, Options{})

	items := threeLineCart()
	outcome, err := svc.Submit(context.Background(), validInput(items))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if cust.calls != 1 {
		t.Fatalf("expected exactly one customer call, got %d", cust.calls)
	}
	if len(rent.calls) != 6 {
		t.Fatalf("expected 6 unit requests, got %d", len(rent.calls))
	}

	wantSizes := []string{"M", "M", "S", "L", "L", "L"}
	wantCostumes := []uuid.UUID{items[0].Costume.ID, items[0].Costume.ID, items[1].Costume.ID, items[2].Costume.ID, items[2].Costume.ID, items[2].Costume.ID}
	for i, call := range rent.calls {
		if call.CostumeID != wantCostumes[i] {
			t.Fatalf("unit %d: unexpected costume %s", i, call.CostumeID)
		}
		if call.Notes == nil || *call.Notes != "party (Size: "+wantSizes[i]+")" {
			t.Fatalf("unit %d: unexpected notes %v", i, call.Notes)
		}
		if call.CustomerID != outcome.CustomerID {
			t.Fatalf("unit %d: expected customer %s", i, outcome.CustomerID)
		}
		if call.RentalDate.String() != "2024-10-01" || call.ExpectedReturnDate.String() != "2024-10-04" {
			t.Fatalf("unit %d: unexpected dates %s %s", i, call.RentalDate, call.ExpectedReturnDate)
		}
	}

	if outcome.Requested != 6 || outcome.Succeeded != 6 || outcome.Failed != 0 {
		t.Fatalf("unexpected counts %+v", outcome)
	}
	if len(outcome.RentalIDs) != 6 {
		t.Fatalf("expected 6 rental ids, got %d", len(outcome.RentalIDs))
	}
	if outcome.Status() != enums.ProvisionStatusFullSuccess {
		t.Fatalf("expected full success, got %s", outcome.Status())
	}
	if outcome.Err() != nil {
		t.Fatalf("expected no combined error, got %v", outcome.Err())
	}
	if len(outcome.BatchID) != 26 {
		t.Fatalf("expected ulid batch id, got %q", outcome.BatchID)
	}
}

func TestSubmitContinuesPastUnitFailure(t *testing.T) {
	rent := &stubRentals{failAt: map[int]error{
		2: pkgerrors.New(pkgerrors.CodeConflict, "costume is out of stock"),
	}}
	svc := newTestService(t, &stubCustomers{}, rent, &stubCarts{}, Options{})

	outcome, err := svc.Submit(context.Background(), validInput(threeLineCart()))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(rent.calls) != 6 {
		t.Fatalf("expected units 4-6 to still be attempted, got %d calls", len(rent.calls))
	}
	if outcome.Requested != 6 || outcome.Succeeded != 5 || outcome.Failed != 1 {
		t.Fatalf("unexpected counts %+v", outcome)
	}
	if outcome.Status() != enums.ProvisionStatusPartialSuccess {
		t.Fatalf("expected partial success, got %s", outcome.Status())
	}
	failure := outcome.Failures[0]
	if failure.Index != 2 || failure.ItemIndex != 1 || failure.Size != "S" {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if failure.Reason != enums.UnitFailureConflict || failure.Retryable {
		t.Fatalf("expected non-retryable conflict, got %+v", failure)
	}
	if outcome.Err() == nil || !strings.Contains(outcome.Err().Error(), "out of stock") {
		t.Fatalf("expected combined error to mention cause, got %v", outcome.Err())
	}
	if !strings.Contains(outcome.Message(), "5 of 6") {
		t.Fatalf("unexpected message %q", outcome.Message())
	}
}

func TestSubmitCustomerFailureSkipsRentals(t *testing.T) {
	cause := pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	rent := &stubRentals{}
	svc := newTestService(t, &stubCustomers{err: cause}, rent, &stubCarts{}, Options{})

	outcome, err := svc.Submit(context.Background(), validInput(threeLineCart()))
	if outcome != nil {
		t.Fatalf("expected no outcome, got %+v", outcome)
	}
	if !stdErrors.Is(err, ErrCustomerCreationFailed) {
		t.Fatalf("expected ErrCustomerCreationFailed, got %v", err)
	}
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause in chain, got %v", err)
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCustomerCreation {
		t.Fatalf("expected customer creation code, got %s", pkgerrors.CodeOf(err))
	}
	if len(rent.calls) != 0 {
		t.Fatalf("expected zero rental calls, got %d", len(rent.calls))
	}
}

func TestSubmitValidationMakesNoCalls(t *testing.T) {
	cases := map[string]func(in *SubmitInput){
		"empty cart":      func(in *SubmitInput) { in.Items = nil },
		"no first name":   func(in *SubmitInput) { in.Customer.FirstName = "  " },
		"no phone":        func(in *SubmitInput) { in.Customer.Phone = "" },
		"no rental date":  func(in *SubmitInput) { in.RentalDate = types.Date{} },
		"return too soon": func(in *SubmitInput) { in.ExpectedReturnDate = types.MustParseDate("2024-09-30") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cust := &stubCustomers{}
			rent := &stubRentals{}
			svc := newTestService(t, cust, rent, &stubCarts{}, Options{})

			in := validInput(threeLineCart())
			mutate(&in)
			_, err := svc.Submit(context.Background(), in)
			if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if cust.calls != 0 || len(rent.calls) != 0 {
				t.Fatalf("expected no collaborator calls, got customers=%d rentals=%d", cust.calls, len(rent.calls))
			}
		})
	}
}

func TestSubmitAllUnitsFail(t *testing.T) {
	netErr := pkgerrors.Wrap(pkgerrors.CodeDependency, stdErrors.New("connection refused"), "rental service unavailable")
	rent := &stubRentals{failAt: map[int]error{0: netErr, 1: netErr}}
	svc := newTestService(t, &stubCustomers{}, rent, &stubCarts{}, Options{})

	items := []selection.Item{{Costume: costume("Ghost"), Size: "XL", Quantity: 2}}
	outcome, err := svc.Submit(context.Background(), validInput(items))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Status() != enums.ProvisionStatusFailed {
		t.Fatalf("expected failed, got %s", outcome.Status())
	}
	for _, failure := range outcome.Failures {
		if failure.Reason != enums.UnitFailureNetworkUnavailable {
			t.Fatalf("expected network_unavailable, got %s", failure.Reason)
		}
	}
}

func TestSubmitUnitTimeoutCountsAsNetworkFailure(t *testing.T) {
	rent := &stubRentals{delay: 200 * time.Millisecond}
	svc := newTestService(t, &stubCustomers{}, rent, &stubCarts{}, Options{UnitTimeout: 10 * time.Millisecond})

	items := []selection.Item{{Costume: costume("Mummy"), Size: "M", Quantity: 2}}
	outcome, err := svc.Submit(context.Background(), validInput(items))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(rent.calls) != 2 {
		t.Fatalf("expected both units attempted, got %d", len(rent.calls))
	}
	if outcome.Failed != 2 {
		t.Fatalf("expected 2 failures, got %d", outcome.Failed)
	}
	if outcome.Failures[0].Reason != enums.UnitFailureNetworkUnavailable || !outcome.Failures[0].Retryable {
		t.Fatalf("expected retryable network_unavailable, got %+v", outcome.Failures[0])
	}
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	rent := &stubRentals{}
	svc := newTestService(t, &stubCustomers{}, rent, &stubCarts{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, err := svc.Submit(ctx, validInput(threeLineCart()))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Succeeded != 6 {
		t.Fatalf("expected the batch to run to completion, got %+v", outcome)
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		want enums.UnitFailureReason
	}{
		{pkgerrors.New(pkgerrors.CodeDependency, "down"), enums.UnitFailureNetworkUnavailable},
		{pkgerrors.New(pkgerrors.CodeValidation, "bad"), enums.UnitFailureBadRequest},
		{pkgerrors.New(pkgerrors.CodeNotFound, "gone"), enums.UnitFailureNotFound},
		{pkgerrors.New(pkgerrors.CodeStateConflict, "state"), enums.UnitFailureConflict},
		{stdErrors.New("boom"), enums.UnitFailureUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyFailure(tc.err); got != tc.want {
			t.Fatalf("ClassifyFailure(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestCheckoutClearsCartAfterOutcome(t *testing.T) {
	cart := selection.New()
	for _, item := range threeLineCart() {
		if err := cart.AddItem(item.Costume, item.Size, item.Quantity); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}
	carts := &stubCarts{cart: cart}
	rent := &stubRentals{failAt: map[int]error{0: pkgerrors.New(pkgerrors.CodeNotFound, "costume not found")}}
	svc := newTestService(t, &stubCustomers{}, rent, carts, Options{})

	in := validInput(nil)
	outcome, err := svc.Checkout(context.Background(), "staff-1", CheckoutInput{
		Customer:           in.Customer,
		RentalDate:         in.RentalDate,
		ExpectedReturnDate: in.ExpectedReturnDate,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if outcome.Status() != enums.ProvisionStatusPartialSuccess {
		t.Fatalf("expected partial success, got %s", outcome.Status())
	}
	if carts.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", carts.cleared)
	}
	if rent.calls[0].Notes == nil || *rent.calls[0].Notes != "(Size: M)" {
		t.Fatalf("expected bare size tag, got %v", rent.calls[0].Notes)
	}
}

func TestCheckoutClearsCartOnCustomerFailure(t *testing.T) {
	cart := selection.New()
	if err := cart.AddItem(costume("Clown"), "M", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	carts := &stubCarts{cart: cart}
	svc := newTestService(t, &stubCustomers{err: stdErrors.New("timeout")}, &stubRentals{}, carts, Options{})

	in := validInput(nil)
	_, err := svc.Checkout(context.Background(), "staff-1", CheckoutInput{
		Customer:           in.Customer,
		RentalDate:         in.RentalDate,
		ExpectedReturnDate: in.ExpectedReturnDate,
	})
	if !stdErrors.Is(err, ErrCustomerCreationFailed) {
		t.Fatalf("expected customer creation failure, got %v", err)
	}
	if carts.cleared != 1 {
		t.Fatalf("expected cart cleared, got %d", carts.cleared)
	}
}

func TestCheckoutKeepsCartOnValidationFailure(t *testing.T) {
	carts := &stubCarts{}
	svc := newTestService(t, &stubCustomers{}, &stubRentals{}, carts, Options{})

	in := validInput(nil)
	_, err := svc.Checkout(context.Background(), "staff-1", CheckoutInput{
		Customer:           in.Customer,
		RentalDate:         in.RentalDate,
		ExpectedReturnDate: in.ExpectedReturnDate,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
	if carts.cleared != 0 {
		t.Fatalf("expected cart untouched, got %d clears", carts.cleared)
	}
}

func TestOutcomeJSONIncludesStatusAndMessage(t *testing.T) {
	outcome := Outcome{BatchID: "b", Requested: 2, Succeeded: 2, RentalIDs: []uuid.UUID{uuid.New(), uuid.New()}}
	raw, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != string(enums.ProvisionStatusFullSuccess) {
		t.Fatalf("unexpected status %v", decoded["status"])
	}
	if decoded["message"] != "2 rentals created" {
		t.Fatalf("unexpected message %v", decoded["message"])
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
	_, err := NewService(ServiceParams{
		Customers: &stubCustomers{},
		Rentals:   &stubRentals{},
		Carts:     &stubCarts{},
		Logger:    testLogger(),
		Options:   Options{UnitTimeout: -time.Second},
	})
	if err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}
