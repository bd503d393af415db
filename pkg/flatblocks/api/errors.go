package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/engine"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/templates"
)

// ErrorResponse is the JSON body written for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var syntaxErr *engine.SyntaxError
	var timeoutErr *flatblocks.TimeoutError
	var variableErr *engine.VariableError
	var blockErr *flatblocks.FlatBlockError

	switch {
	// A wrapper template failing inside a page is a server fault even when
	// the wrapper itself is missing.
	case errors.As(err, &blockErr) && strings.HasPrefix(blockErr.Op, "render"):
		return http.StatusInternalServerError
	case errors.Is(err, flatblocks.ErrFlatBlockNotFound), errors.Is(err, templates.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, flatblocks.ErrFlatBlockExists):
		return http.StatusConflict
	case errors.Is(err, flatblocks.ErrInvalidSlug), errors.Is(err, flatblocks.ErrInvalidHeader),
		errors.Is(err, flatblocks.ErrInvalidContent),
		errors.As(err, &syntaxErr), errors.As(err, &timeoutErr), errors.As(err, &variableErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "path", r.URL.Path, "error", err)
	} else {
		slog.Warn(msg, "path", r.URL.Path, "status", status, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
