package webhook_gateway

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/obs"
	"github.com/NordCoder/ghbridge/internal/repository/github"
)

type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (github.Token, error)
}

type oauthRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type oauthTokens struct {
	State       string `json:"state"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

const (
	pageOK       = `<!doctype html><html><body><h1>Authorized</h1><p>You can close this window.</p></body></html>`
	pageNotFound = `<!doctype html><html><body><h1>Not found</h1><p>No pending authorization matches this request.</p></body></html>`
	pageError    = `<!doctype html><html><body><h1>Something went wrong</h1><p>Please try again.</p></body></html>`
)

// OAuthHandler completes the GitHub authorization-code flow. The bus decides
// whether state belongs to a pending authorization; the obtained token is
// published for whoever started it.
type OAuthHandler struct {
	bus    bus.Bus
	ex     TokenExchanger
	sender string
	log    *zap.Logger
}

func NewOAuthHandler(b bus.Bus, ex TokenExchanger, sender string, log *zap.Logger) *OAuthHandler {
	if sender == "" {
		sender = DefaultSender
	}
	return &OAuthHandler{bus: b, ex: ex, sender: sender, log: obs.Component(log, "oauth")}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := obs.WithTrace(ctx, h.log)
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")

	req, err := bus.NewMessage(bus.TopicOAuthResponse, h.sender, oauthRequest{Code: code, State: state})
	if err != nil {
		log.Error("build oauth request", zap.Error(err))
		h.page(w, http.StatusInternalServerError)
		return
	}
	resp, err := h.bus.RequestReply(ctx, req)
	if err != nil {
		log.Warn("oauth state lookup failed", zap.Error(err))
		h.page(w, http.StatusInternalServerError)
		return
	}
	var found bool
	if err := resp.Decode(&found); err != nil {
		log.Warn("oauth state lookup: unexpected reply", zap.Error(err))
		h.page(w, http.StatusInternalServerError)
		return
	}
	if !found {
		log.Info("no pending authorization", zap.String("state", state))
		h.page(w, http.StatusNotFound)
		return
	}

	tok, err := h.ex.Exchange(ctx, code)
	if err != nil {
		log.Warn("code exchange failed", zap.Error(err))
		h.page(w, http.StatusInternalServerError)
		return
	}

	msg, err := bus.NewMessage(bus.TopicOAuthTokens, h.sender, oauthTokens{
		State:       state,
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Scope:       tok.Scope,
	})
	if err == nil {
		err = h.bus.Publish(ctx, msg)
	}
	if err != nil {
		log.Error("publish tokens", zap.Error(err))
		h.page(w, http.StatusInternalServerError)
		return
	}
	h.page(w, http.StatusOK)
}

func (h *OAuthHandler) page(w http.ResponseWriter, code int) {
	oauthCallbacks.WithLabelValues(strconv.Itoa(code)).Inc()
	body := pageError
	switch code {
	case http.StatusOK:
		body = pageOK
	case http.StatusNotFound:
		body = pageNotFound
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
