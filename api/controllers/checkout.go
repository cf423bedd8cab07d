package controllers

import (
	"net/http"

	"github.com/angelmondragon/costumerental-backend/api/responses"
	"github.com/angelmondragon/costumerental-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/costumerental-backend/internal/checkout"
	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
)

const maxNotesLength = 500

// Checkout provisions one rental per unit in the caller's cart for a new
// customer. A batch where every unit succeeded answers 201; partial and
// failed batches answer 200 with the per-unit outcome so the form can show
// which units to retry.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, err := staffIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.CheckoutInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Notes = validators.SanitizeString(payload.Notes, maxNotesLength)

		outcome, err := svc.Checkout(r.Context(), staffID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if outcome.Status() == enums.ProvisionStatusFullSuccess {
			status = http.StatusCreated
		}
		if outcome.Failed > 0 && logg != nil {
			ctx := logg.WithBatchID(r.Context(), outcome.BatchID)
			logg.Warn(logg.WithFields(ctx, map[string]any{
				"requested": outcome.Requested,
				"failed":    outcome.Failed,
				"status":    string(outcome.Status()),
			}), "checkout incomplete")
		}
		responses.WriteSuccessStatus(w, status, outcome)
	}
}
