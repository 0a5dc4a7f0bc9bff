package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/utils"
)

// writeServiceError maps a service error onto the wire. Anything that is not
// an AppError becomes an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		utils.WriteError(w, appErr)
		return
	}
	utils.WriteError(w, errors.Internal("Unexpected error", err))
}

// parseIDParam parses a numeric {id}-style route parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}
