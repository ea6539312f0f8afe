package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotauth/internal/auth"
	"github.com/desertthunder/spotauth/internal/models"
)

// Flow is the authorization code flow served over HTTP. [*auth.Flow] implements it.
type Flow interface {
	BeginLogin() string
	HandleCallback(p auth.CallbackParams) error
	ExchangeCode(ctx context.Context) (auth.TokenSet, error)
	RefreshToken(ctx context.Context) (auth.TokenSet, bool, error)
	CheckSession(ctx context.Context) (auth.TokenSet, bool, error)
}

// EventRecorder stores audit events for flow steps.
type EventRecorder interface {
	Record(ctx context.Context, event *models.Event) error
}

// FlowHandler maps the flow operations onto the five HTTP endpoints.
// Implements the [Handler] interface for registration with a [Router].
type FlowHandler struct {
	flow   Flow
	events EventRecorder
	logger *log.Logger
}

// NewFlowHandler creates a handler for flow. A nil events recorder disables auditing.
func NewFlowHandler(flow Flow, events EventRecorder, logger *log.Logger) *FlowHandler {
	return &FlowHandler{flow: flow, events: events, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *FlowHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/login", Handler: h.Login},
		{Method: http.MethodGet, Path: "/callback", Handler: h.Callback},
		{Method: http.MethodGet, Path: "/access", Handler: h.Access},
		{Method: http.MethodGet, Path: "/refresh", Handler: h.Refresh},
		{Method: http.MethodGet, Path: "/{$}", Handler: h.Session},
	}
}

// Login starts a login and redirects the browser to the provider's authorize page.
func (h *FlowHandler) Login(w http.ResponseWriter, r *http.Request) {
	target := h.flow.BeginLogin()
	h.record(r, models.OperationLogin, models.OutcomeOK, "")
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback validates the provider redirect and continues to /access.
//
// A state mismatch or provider error is answered with 400 and a failure envelope.
func (h *FlowHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := h.flow.HandleCallback(auth.CallbackParams{
		State: q.Get("state"),
		Error: optionalParam(q, "error"),
		Code:  q.Get("code"),
	})

	var cbErr *auth.CallbackError
	switch {
	case err == nil:
		h.record(r, models.OperationCallback, models.OutcomeOK, "")
		http.Redirect(w, r, "/access", http.StatusFound)
	case errors.As(err, &cbErr):
		outcome := models.OutcomeProviderDenied
		detail := cbErr.Message
		if errors.Is(cbErr, auth.ErrStateMismatch) {
			outcome = models.OutcomeStateMismatch
			detail = ""
		}
		h.logger.Warn("callback rejected", "reason", cbErr.Kind, "request_id", RequestIDFromContext(r.Context()))
		h.record(r, models.OperationCallback, outcome, detail)
		writeResult(w, http.StatusBadRequest, FailureMessage(cbErr.Message))
	default:
		h.fail(w, r, models.OperationCallback, models.OutcomeError, err)
	}
}

// Access exchanges the pending code for tokens and redirects to /.
func (h *FlowHandler) Access(w http.ResponseWriter, r *http.Request) {
	if _, err := h.flow.ExchangeCode(r.Context()); err != nil {
		h.fail(w, r, models.OperationAccess, models.OutcomeExchangeFailed, err)
		return
	}

	h.record(r, models.OperationAccess, models.OutcomeOK, "")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Refresh renews the access token and redirects to /. Without a refresh token nothing is sent to the provider.
func (h *FlowHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_, refreshed, err := h.flow.RefreshToken(r.Context())
	if err != nil {
		h.fail(w, r, models.OperationRefresh, models.OutcomeExchangeFailed, err)
		return
	}

	if refreshed {
		h.record(r, models.OperationRefresh, models.OutcomeOK, "")
	} else {
		h.record(r, models.OperationRefresh, models.OutcomeNoop, "no refresh token")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Session shows the current token set when the provider still accepts it, otherwise redirects to /login.
func (h *FlowHandler) Session(w http.ResponseWriter, r *http.Request) {
	tokens, valid, err := h.flow.CheckSession(r.Context())
	if err != nil {
		h.fail(w, r, models.OperationSession, models.OutcomeError, err)
		return
	}

	if !valid {
		h.record(r, models.OperationSession, models.OutcomeInvalid, "")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	h.record(r, models.OperationSession, models.OutcomeOK, "")
	writeResult(w, http.StatusOK, Success(tokens))
}

// fail logs err and answers with the generic 500 envelope. The error never reaches the client.
func (h *FlowHandler) fail(w http.ResponseWriter, r *http.Request, op models.Operation, outcome models.Outcome, err error) {
	h.logger.Error("flow step failed", "operation", op, "error", err, "request_id", RequestIDFromContext(r.Context()))
	h.record(r, op, outcome, err.Error())
	writeUnhandled(w)
}

func (h *FlowHandler) record(r *http.Request, op models.Operation, outcome models.Outcome, detail string) {
	if h.events == nil {
		return
	}

	event := models.NewEvent(RequestIDFromContext(r.Context()), op, outcome, detail)
	if err := h.events.Record(r.Context(), event); err != nil {
		h.logger.Warn("failed to record event", "operation", op, "error", err)
	}
}

// optionalParam returns nil when key is absent from q.
func optionalParam(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
