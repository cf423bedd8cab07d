package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/costumerental-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
)

func staffIDFromRequest(r *http.Request) (string, error) {
	staffID := strings.TrimSpace(middleware.StaffIDFromContext(r.Context()))
	if staffID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity required")
	}
	return staffID, nil
}
