// Package push drives the external messaging provider's topic membership.
// Subscribe/unsubscribe are assumed idempotent on the provider side; no
// deduplication happens here.
package push

import (
	"context"
	"net/http"

	"github.com/kyeom/newsdeck/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Provider interface {
	SubscribeTokensToTopic(ctx context.Context, topic string, tokens []string) error
	UnsubscribeTokensFromTopic(ctx context.Context, topic string, tokens []string) error
}

func NewProvider(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Provider {
	return &fcmProvider{log, cfg, transport}
}
