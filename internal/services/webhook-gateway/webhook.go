package webhook_gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/obs"
)

const (
	// GitHub caps payloads at 25 MB.
	maxWebhookBodySize = 32 << 20

	headerSignature = "X-Hub-Signature"
	headerDelivery  = "X-GitHub-Delivery"
	headerEvent     = "X-GitHub-Event"

	DefaultSender = "GithubWebhooks"
)

type WebhookOptions struct {
	Secret         []byte
	Sender         string
	DedupWindow    time.Duration
	PublishTimeout time.Duration
}

// WebhookHandler authenticates GitHub deliveries, classifies them and forwards
// the classified ones to the bus without making GitHub wait for it.
type WebhookHandler struct {
	secret         []byte
	sender         string
	publishTimeout time.Duration
	bus            bus.Bus
	log            *zap.Logger
	seen           *cache.Cache

	wg sync.WaitGroup
}

func NewWebhookHandler(b bus.Bus, opts WebhookOptions, log *zap.Logger) *WebhookHandler {
	if opts.Sender == "" {
		opts.Sender = DefaultSender
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = time.Hour
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 10 * time.Second
	}
	return &WebhookHandler{
		secret:         opts.Secret,
		sender:         opts.Sender,
		publishTimeout: opts.PublishTimeout,
		bus:            b,
		log:            obs.Component(log, "webhook"),
		seen:           cache.New(opts.DedupWindow, opts.DedupWindow/2),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.reply(w, http.StatusMethodNotAllowed, resultMethodNotAllowed)
		return
	}
	log := obs.WithTrace(r.Context(), h.log)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reply(w, http.StatusRequestEntityTooLarge, resultTooLarge)
			return
		}
		log.Warn("read body", zap.Error(err))
		h.reply(w, http.StatusBadRequest, resultBadRequest)
		return
	}

	if !VerifySignature(body, r.Header.Get(headerSignature), h.secret) {
		log.Warn("signature mismatch", zap.String("remote_addr", r.RemoteAddr))
		h.reply(w, http.StatusForbidden, resultForbidden)
		return
	}

	delivery := r.Header.Get(headerDelivery)
	if delivery != "" {
		if err := h.seen.Add(delivery, struct{}{}, cache.DefaultExpiration); err != nil {
			log.Debug("duplicate delivery", zap.String("delivery_id", delivery))
			h.reply(w, http.StatusOK, resultDuplicate)
			return
		}
	}

	event, err := decodeEvent(body)
	if err != nil {
		log.Warn("invalid payload", zap.String("delivery_id", delivery), zap.Error(err))
		h.reply(w, http.StatusBadRequest, resultBadRequest)
		return
	}

	name, ok := Classify(event)
	if !ok {
		log.Debug("unclassified delivery",
			zap.String("delivery_id", delivery),
			zap.String("github_event", r.Header.Get(headerEvent)),
			zap.String("action", event.Action))
		h.reply(w, http.StatusOK, resultUnclassified)
		return
	}

	h.forward(r.Context(), name, delivery, body, log.With(zap.String("event", name), zap.String("delivery_id", delivery)))
	w.WriteHeader(http.StatusOK)
}

// Wait blocks until every forward started so far has finished.
func (h *WebhookHandler) Wait() { h.wg.Wait() }

func (h *WebhookHandler) reply(w http.ResponseWriter, code int, result string) {
	webhookRequests.WithLabelValues(result).Inc()
	if code == http.StatusOK {
		w.WriteHeader(code)
		return
	}
	http.Error(w, http.StatusText(code), code)
}

// forward publishes in the background. A delivery that fails to publish is
// forgotten so GitHub's redelivery of it goes through.
func (h *WebhookHandler) forward(reqCtx context.Context, name, delivery string, body []byte, log *zap.Logger) {
	ctx := context.WithoutCancel(reqCtx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				h.forget(delivery)
				webhookRequests.WithLabelValues(resultInternalError).Inc()
				log.Error("forward panicked", zap.Any("panic", p))
			}
		}()

		msg, err := bus.NewMessage(name, h.sender, json.RawMessage(body))
		if err != nil {
			h.forget(delivery)
			webhookRequests.WithLabelValues(resultInternalError).Inc()
			log.Error("build bus message", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(ctx, h.publishTimeout)
		defer cancel()
		if err := h.bus.Publish(ctx, msg); err != nil {
			h.forget(delivery)
			webhookRequests.WithLabelValues(resultPublishFailed).Inc()
			log.Warn("publish failed", zap.Error(err))
			return
		}
		webhookRequests.WithLabelValues(resultForwarded).Inc()
		log.Debug("forwarded")
	}()
}

func (h *WebhookHandler) forget(delivery string) {
	if delivery != "" {
		h.seen.Delete(delivery)
	}
}

func decodeEvent(body []byte) (Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, errors.New("payload is not a json object")
	}
	var e Event
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
