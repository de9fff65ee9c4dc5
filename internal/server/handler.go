package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/notepid/postboard/internal/account"
	"github.com/notepid/postboard/internal/message"
	"github.com/notepid/postboard/internal/metrics"
)

// AccountService is the account behaviour the API needs.
type AccountService interface {
	CreateAccount(ctx context.Context, c account.Candidate) (*account.Account, error)
	Login(ctx context.Context, c account.Candidate) (*account.Account, error)
}

// MessageService is the message behaviour the API needs.
type MessageService interface {
	CreateMessage(ctx context.Context, m message.Message) (*message.Message, error)
	GetAllMessages(ctx context.Context) ([]*message.Message, error)
	GetMessageByID(ctx context.Context, id int) (*message.Message, error)
	DeleteMessage(ctx context.Context, id int) (int, error)
	UpdateMessageText(ctx context.Context, id int, text string) (int, error)
	GetUserMessages(ctx context.Context, accountID int) ([]*message.Message, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the postboard HTTP API.
type Handler struct {
	accounts AccountService
	messages MessageService
	db       Pinger
	metrics  *metrics.Metrics
}

// NewHandler creates the API handler.
func NewHandler(accounts AccountService, messages MessageService, db Pinger, m *metrics.Metrics) *Handler {
	return &Handler{accounts: accounts, messages: messages, db: db, metrics: m}
}

// Router builds the route table with logging, metrics and panic recovery.
func (h *Handler) Router(log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(log), h.metrics.Middleware, recoverer)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)

	r.HandleFunc("/messages", h.createMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages", h.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages/{messageId}", h.getMessage).Methods(http.MethodGet)
	r.HandleFunc("/messages/{messageId}", h.deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/messages/{messageId}", h.updateMessage).Methods(http.MethodPatch)
	r.HandleFunc("/accounts/{accountId}/messages", h.listUserMessages).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	return r
}

// statusFor maps a service error to its response status. Errors without a
// mapping are unexpected and become 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, account.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, account.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, message.ErrNoAssociatedUser),
		errors.Is(err, message.ErrInvalidMessageText),
		errors.Is(err, message.ErrMessageNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, status, errInternal)
		return
	}
	writeError(w, status, err)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var c account.Candidate
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	acc, err := h.accounts.CreateAccount(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.AccountRegistered()
	writeJSON(w, r, acc)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var c account.Candidate
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	acc, err := h.accounts.Login(r.Context(), c)
	if err != nil {
		if errors.Is(err, account.ErrUnauthorized) {
			h.metrics.Login(false)
		}
		h.fail(w, r, err)
		return
	}
	h.metrics.Login(true)
	writeJSON(w, r, acc)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	var m message.Message
	if err := decode(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.messages.CreateMessage(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.MessageChanged("create")
	writeJSON(w, r, created)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.GetAllMessages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*message.Message{}
	}
	writeJSON(w, r, msgs)
}

func (h *Handler) getMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "messageId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	m, err := h.messages.GetMessageByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if m == nil {
		writeEmpty(w, http.StatusOK)
		return
	}
	writeJSON(w, r, m)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "messageId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := h.messages.DeleteMessage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if n == 0 {
		writeEmpty(w, http.StatusOK)
		return
	}
	h.metrics.MessageChanged("delete")
	writeJSON(w, r, n)
}

func (h *Handler) updateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "messageId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var u message.TextUpdate
	if err := decode(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := h.messages.UpdateMessageText(r.Context(), id, u.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if n == 0 {
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	h.metrics.MessageChanged("update")
	writeJSON(w, r, n)
}

func (h *Handler) listUserMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	msgs, err := h.messages.GetUserMessages(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*message.Message{}
	}
	writeJSON(w, r, msgs)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.db.PingContext(ctx); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
