package controllers

import (
	"net/http"

	"github.com/angelmondragon/costumerental-backend/api/responses"
	"github.com/angelmondragon/costumerental-backend/api/validators"
	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
)

// CostumeList returns the catalog with available stock per entry.
func CostumeList(svc costumes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CostumeDetail(svc costumes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "costumeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		costume, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, costume)
	}
}

func CostumeCreate(svc costumes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload costumes.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		costume, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, costume)
	}
}
