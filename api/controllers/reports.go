package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/costumerental-backend/api/responses"
	"github.com/angelmondragon/costumerental-backend/internal/reports"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
)

// ReportCustomers groups rentals per customer. ?sort=total orders groups by
// amount, highest first; the default keeps first-seen order.
func ReportCustomers(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sortByTotal := false
		switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort"))) {
		case "":
		case "total":
			sortByTotal = true
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort").
				WithDetails(map[string]any{"field": "sort", "allowed": []string{"total"}}))
			return
		}

		groups, err := svc.CustomerGroups(r.Context(), sortByTotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}

func ReportDashboard(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
