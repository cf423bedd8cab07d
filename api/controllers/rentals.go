package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/costumerental-backend/api/responses"
	"github.com/angelmondragon/costumerental-backend/api/validators"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
)

// Clock returns the instant effective statuses are computed against.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// RentalList filters by effective status (?status=overdue) and customer.
func RentalList(svc rentals.Service, clock Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := validators.ParseQueryRentalStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), rentals.ListQuery{Status: status, CustomerID: customerID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rentals.NewViews(list, clock.now()))
	}
}

func RentalDetail(svc rentals.Service, clock Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rentals.NewView(*rental, clock.now()))
	}
}

// RentalCreate issues a single rental unit.
func RentalCreate(svc rentals.Service, clock Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload rentals.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.CreateRental(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rentals.NewView(*rental, clock.now()))
	}
}

type returnRequest struct {
	ActualReturnDate *types.Date `json:"actual_return_date,omitempty"`
}

// RentalReturn closes a rental; without a body the return is dated today.
func RentalReturn(svc rentals.Service, clock Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload returnRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Return(r.Context(), id, payload.ActualReturnDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithRentalID(r.Context(), rental.ID.String()), "rental returned")
		}
		responses.WriteSuccess(w, rentals.NewView(*rental, clock.now()))
	}
}

func RentalCancel(svc rentals.Service, clock Clock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithRentalID(r.Context(), rental.ID.String()), "rental cancelled")
		}
		responses.WriteSuccess(w, rentals.NewView(*rental, clock.now()))
	}
}
