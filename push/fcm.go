package push

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/kyeom/newsdeck/config"
	"go.uber.org/zap"
)

// fcmProvider talks to the FCM Instance ID batch API
// (iid.googleapis.com/iid/v1:batchAdd and :batchRemove).
type fcmProvider struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}

type batchRequest struct {
	To                 string   `json:"to"`
	RegistrationTokens []string `json:"registration_tokens"`
}

type batchResponse struct {
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (p *fcmProvider) SubscribeTokensToTopic(ctx context.Context, topic string, tokens []string) error {
	return p.batch(ctx, ":batchAdd", topic, tokens)
}

func (p *fcmProvider) UnsubscribeTokensFromTopic(ctx context.Context, topic string, tokens []string) error {
	return p.batch(ctx, ":batchRemove", topic, tokens)
}

func (p *fcmProvider) batch(ctx context.Context, verb, topic string, tokens []string) error {
	payload := batchRequest{
		To:                 "/topics/" + topic,
		RegistrationTokens: tokens,
	}

	var resp batchResponse
	err := requests.
		URL(p.cfg.FCM.Endpoint + verb).
		Transport(p.transport).
		Header("Authorization", "key="+p.cfg.FCM.ServerKey).
		Header("access_token_auth", "true").
		BodyJSON(&payload).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fcm %s topic %s: %w", verb, topic, err)
	}

	// The IID API reports per-token outcomes with a 200 status; any entry
	// with an error string means that token was not processed.
	for i, result := range resp.Results {
		if result.Error != "" {
			p.log.Sugar().Errorw("fcm batch result error",
				"verb", verb, "topic", topic, "token_index", i, "error", result.Error)
			return fmt.Errorf("fcm %s topic %s: token %d: %s", verb, topic, i, result.Error)
		}
	}
	return nil
}
