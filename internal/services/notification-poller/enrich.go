package notification_poller

import (
	"context"
	"encoding/json"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NordCoder/ghbridge/internal/domain/notification"
)

// enrich resolves each notification's subject and latest comment. Every
// resolution is independent: a failure leaves that field unset and nothing
// else. The returned slice keeps the input order.
func (p *Poller) enrich(ctx context.Context, s UserStream, raw []notification.Notification, log *zap.Logger) []notification.Notification {
	out := make([]notification.Notification, len(raw))
	copy(out, raw)

	var g errgroup.Group
	g.SetLimit(p.cfg.EnrichConcurrency)
	for i := range out {
		if !out[i].Reason.Known() {
			log.Debug("unknown notification reason, passing through",
				zap.String("notification_id", out[i].ID),
				zap.String("reason", string(out[i].Reason)))
		}
		subj := &out[i].Subject
		if subj.URL != "" {
			url := subj.URL
			g.Go(func() error {
				subj.URLData = p.resolve(ctx, s, url, log)
				return nil
			})
		}
		if subj.LatestCommentURL != "" {
			url := subj.LatestCommentURL
			g.Go(func() error {
				subj.LatestCommentURLData = p.resolve(ctx, s, url, log)
				return nil
			})
		}
	}
	_ = g.Wait()
	return out
}

func (p *Poller) resolve(ctx context.Context, s UserStream, url string, log *zap.Logger) json.RawMessage {
	if s.resolved != nil {
		if v, ok := s.resolved.Get(url); ok {
			return v.(json.RawMessage)
		}
	}

	rctx, cancel := p.callContext(ctx)
	defer cancel()
	data, err := s.API.Resolve(rctx, url)
	if err != nil {
		mEnrichFailures.Inc()
		log.Warn("resolve failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	if s.resolved != nil {
		s.resolved.Set(url, data, cache.DefaultExpiration)
	}
	return data
}
