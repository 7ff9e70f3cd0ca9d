package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// Outcome tells a client whether a failed request may have changed state.
const (
	OutcomeNone    = "none"
	OutcomeUnknown = "unknown"
)

type ErrorBody struct {
	Message string            `json:"message"`
	Outcome string            `json:"outcome"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type MessageBody struct {
	Message string `json:"message"`
}

type Responder struct {
	render *render.Render
	logger logger.ZapLogger
}

func New(log logger.ZapLogger) *Responder {
	return &Responder{
		render: render.New(render.Options{UnEscapeHTML: true}),
		logger: log,
	}
}

func (r *Responder) JSON(w http.ResponseWriter, status int, v any) {
	if err := r.render.JSON(w, status, v); err != nil {
		r.logger.Error("failed to write response", zap.Error(err))
	}
}

func (r *Responder) Message(w http.ResponseWriter, status int, msg string) {
	r.JSON(w, status, MessageBody{Message: msg})
}

// Invalid answers 400 with per field messages.
func (r *Responder) Invalid(w http.ResponseWriter, msg string, fields map[string]string) {
	r.JSON(w, http.StatusBadRequest, ErrorBody{Message: msg, Outcome: OutcomeNone, Errors: fields})
}

// Error maps err to a status code and writes it. Server side failures are
// logged and their details withheld.
func (r *Responder) Error(w http.ResponseWriter, err error) {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	r.JSON(w, status, body)
}

func Classify(err error) (int, ErrorBody) {
	var dup *model.DuplicateKeyError
	switch {
	case errors.Is(err, model.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorBody{
			Message: "store unavailable, the request may or may not have been applied",
			Outcome: OutcomeUnknown,
		}
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidQuantity):
		return http.StatusBadRequest, ErrorBody{Message: err.Error(), Outcome: OutcomeNone}
	case errors.Is(err, model.ErrProductNotFound), errors.Is(err, model.ErrCategoryNotFound):
		return http.StatusNotFound, ErrorBody{Message: err.Error(), Outcome: OutcomeNone}
	case errors.Is(err, model.ErrSellRejected), errors.Is(err, model.ErrInsufficientStock):
		return http.StatusConflict, ErrorBody{Message: err.Error(), Outcome: OutcomeNone}
	case errors.As(err, &dup):
		return http.StatusConflict, ErrorBody{Message: fmt.Sprintf("%s already exists", dup.Field), Outcome: OutcomeNone}
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrAllocationFailed):
		return http.StatusConflict, ErrorBody{Message: err.Error(), Outcome: OutcomeNone}
	}
	return http.StatusInternalServerError, ErrorBody{Message: "Internal server error", Outcome: OutcomeUnknown}
}
