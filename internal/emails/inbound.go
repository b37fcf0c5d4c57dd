package emails

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obra-dashboard/obra/internal/platform/httpx"
)

// InboundPath receives raw messages from the mail relay.
const InboundPath = "/api/emails/inbound"

// TokenHeader carries the shared secret of the inbound hook.
const TokenHeader = "X-Inbound-Token"

// IngestQueue defers parsing and storage to the worker.
type IngestQueue interface {
	EnqueueEmailIngest(ctx context.Context, id string, raw []byte) error
}

// InboundHandler accepts raw RFC 5322 messages over HTTP.
type InboundHandler struct {
	logger *slog.Logger
	token  string
	queue  IngestQueue
	newID  func() string
}

// NewInboundHandler constructs the hook. An empty token rejects every call.
func NewInboundHandler(logger *slog.Logger, token string, queue IngestQueue) *InboundHandler {
	return &InboundHandler{logger: logger, token: token, queue: queue, newID: uuid.NewString}
}

func (h *InboundHandler) MountRoutes(r chi.Router) {
	r.Post(InboundPath, h.Receive)
}

func (h *InboundHandler) Receive(w http.ResponseWriter, r *http.Request) {
	given := r.Header.Get(TokenHeader)
	if h.token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
		httpx.Error(w, http.StatusUnauthorized, "token inválido")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, "mensagem maior que 10 MB")
			return
		}
		httpx.Error(w, http.StatusBadRequest, "não foi possível ler a mensagem")
		return
	}
	if len(raw) == 0 {
		httpx.Error(w, http.StatusBadRequest, "mensagem vazia")
		return
	}

	id := h.newID()
	if err := h.queue.EnqueueEmailIngest(r.Context(), id, raw); err != nil {
		h.logger.Error("enqueue inbound email", slog.Any("error", err), slog.String("id", id))
		httpx.Error(w, http.StatusServiceUnavailable, "fila indisponível")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"id": id})
}
