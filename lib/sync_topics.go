package lib

import (
	"context"
	"errors"
	"fmt"

	"github.com/kyeom/newsdeck/push"
	"go.uber.org/zap"
)

type topicSync struct {
	log      *zap.Logger
	prefs    *preferences
	provider push.Provider
}

// ApplySubscriptions joins the device tokens to the topic of every visible
// category whose notification option is on. Nothing happens when the token
// list is empty or the user's master push switch is off.
//
// The per-category loop is ordered with a short circuit on the first
// provider error: categories processed before the failure keep their new
// state and the rest are never attempted. That partial-completion behavior
// is part of the contract, so this must stay a sequential loop unless a
// compensating rollback is added.
func (svc *topicSync) ApplySubscriptions(ctx context.Context, userIdx uint, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	pushOn, err := svc.prefs.PushOnOff(ctx, userIdx)
	if errors.Is(err, ErrUserNotFound) {
		svc.log.Sugar().Infow("skipping topic subscribe for unknown user", "user_idx", userIdx)
		return nil
	}
	if err != nil {
		return err
	}
	if !pushOn {
		return nil
	}

	subs, err := svc.prefs.CategorySubscriptions(ctx, userIdx)
	if err != nil {
		return err
	}

	for i, topic := range subs.Topics {
		if subs.Options[i] == 0 {
			continue
		}
		if err := svc.provider.SubscribeTokensToTopic(ctx, topic, tokens); err != nil {
			return fmt.Errorf("subscribe tokens to %q: %w", topic, err)
		}
	}
	return nil
}

// RemoveSubscriptions releases the tokens from every category topic with a
// nonzero option. It runs regardless of the push on/off switch: this path
// models token invalidation (logout, token rotation), and a token that
// joined topics while push was on must still be able to leave them after
// push was turned off. Same sequential fail-fast loop as ApplySubscriptions.
func (svc *topicSync) RemoveSubscriptions(ctx context.Context, userIdx uint, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	subs, err := svc.prefs.CategorySubscriptions(ctx, userIdx)
	if err != nil {
		return err
	}

	for i, topic := range subs.Topics {
		if subs.Options[i] == 0 {
			continue
		}
		if err := svc.provider.UnsubscribeTokensFromTopic(ctx, topic, tokens); err != nil {
			return fmt.Errorf("unsubscribe tokens from %q: %w", topic, err)
		}
	}
	return nil
}
