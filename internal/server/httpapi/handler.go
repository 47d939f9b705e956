// Package httpapi exposes the activation service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/server/services"
	"github.com/dmitrijs2005/gophactivate/internal/server/validation"
	"github.com/go-playground/validator/v10"
)

// Activator is the account activation core.
type Activator interface {
	Register(ctx context.Context, email, password string) (*services.RegistrationResult, error)
	Activate(ctx context.Context, email, password, code string) (*models.Account, error)
	ResendActivation(ctx context.Context, email, password string) (*services.ResendResult, error)
}

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the /api/v1/users endpoints.
type Handler struct {
	svc      Activator
	storage  Pinger
	validate *validator.Validate
	log      logging.Logger
}

func NewHandler(svc Activator, storage Pinger, log logging.Logger) *Handler {
	return &Handler{
		svc:      svc,
		storage:  storage,
		validate: validation.New(),
		log:      log.With("module", "httpapi"),
	}
}

// bind decodes and validates the request body, writing the error response
// itself when it fails.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decode(w, r, dst); err != nil {
		writeError(w, errMalformedRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, validationErrorFor(err))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	e := errorFor(err)
	if e.StatusCode >= http.StatusInternalServerError {
		h.log.Error(r.Context(), op+" failed", "error", err)
	}
	writeError(w, e)
}

// Register creates a PENDING account and sends its activation code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}

	h.respondJSON(w, r, registerResponse{
		UserID:    res.Account.ID,
		Email:     res.Account.Email,
		Status:    string(res.Account.Status),
		ExpiresAt: res.ExpiresAt,
		Message:   "Registration successful. Check your email for the activation code.",
		Warning:   warningFor(res.DispatchWarning),
	}, http.StatusCreated)
}

// Activate makes a PENDING account ACTIVE.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if !h.bind(w, r, &req) {
		return
	}

	account, err := h.svc.Activate(r.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		h.fail(w, r, "activate", err)
		return
	}

	h.respondJSON(w, r, activateResponse{
		UserID:      account.ID,
		Email:       account.Email,
		Status:      string(account.Status),
		ActivatedAt: account.ActivatedAt,
		Message:     "Account activated successfully.",
	}, http.StatusOK)
}

// ResendActivation replaces the outstanding code with a new one.
func (h *Handler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.svc.ResendActivation(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "resend activation", err)
		return
	}

	h.respondJSON(w, r, resendResponse{
		ExpiresAt: res.ExpiresAt,
		Message:   "A new activation code has been sent.",
		Warning:   warningFor(res.DispatchWarning),
	}, http.StatusOK)
}

// Health reports storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Warn(r.Context(), "storage ping failed", "error", err)
		writeError(w, errStorage)
		return
	}
	h.respondJSON(w, r, healthResponse{Service: "ok", Storage: "ok"}, http.StatusOK)
}

func warningFor(err error) *apiError {
	if err == nil || !errors.Is(err, common.ErrDispatchWarning) {
		return nil
	}
	w := errDispatch
	return &w
}
