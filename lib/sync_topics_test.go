package lib

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncFixture(t *testing.T, pushOn int) (*Service, *fakeProvider) {
	t.Helper()
	db := newTestDB(t)
	provider := &fakeProvider{failOn: map[string]error{}}
	svc := newTestService(t, db, provider)

	seedUser(t, db, 1, pushOn)
	seedCategory(t, db, 10, "economy", "topic-economy", 1)
	seedCategory(t, db, 20, "tech", "topic-tech", 1)
	seedCategory(t, db, 30, "culture", "topic-culture", 1)
	seedSubscription(t, db, 1, 10, 1)
	seedSubscription(t, db, 1, 20, 1)
	seedSubscription(t, db, 1, 30, 1)
	return svc, provider
}

func TestApplySubscriptionsEmptyTokens(t *testing.T) {
	svc, provider := syncFixture(t, 1)

	require.NoError(t, svc.ApplySubscriptions(context.Background(), 1, nil))
	assert.Empty(t, provider.calls)
}

func TestApplySubscriptionsPushOff(t *testing.T) {
	svc, provider := syncFixture(t, 0)

	require.NoError(t, svc.ApplySubscriptions(context.Background(), 1, []string{"tok-a"}))
	assert.Empty(t, provider.calls, "push-off must issue zero provider calls")
}

func TestApplySubscriptionsUnknownUser(t *testing.T) {
	svc, provider := syncFixture(t, 1)

	require.NoError(t, svc.ApplySubscriptions(context.Background(), 999, []string{"tok-a"}))
	assert.Empty(t, provider.calls)
}

func TestApplySubscriptionsSubscribesEnabledCategories(t *testing.T) {
	db := newTestDB(t)
	provider := &fakeProvider{failOn: map[string]error{}}
	svc := newTestService(t, db, provider)

	seedUser(t, db, 1, 1)
	seedCategory(t, db, 10, "economy", "topic-economy", 1)
	seedCategory(t, db, 20, "tech", "topic-tech", 1)
	seedCategory(t, db, 30, "culture", "topic-culture", 1)
	seedSubscription(t, db, 1, 10, 1)
	seedSubscription(t, db, 1, 20, 0) // notifications off for tech
	seedSubscription(t, db, 1, 30, 2)

	tokens := []string{"tok-a", "tok-b"}
	require.NoError(t, svc.ApplySubscriptions(context.Background(), 1, tokens))

	require.Len(t, provider.calls, 2)
	assert.Equal(t, providerCall{"subscribe", "topic-economy", tokens}, provider.calls[0])
	assert.Equal(t, providerCall{"subscribe", "topic-culture", tokens}, provider.calls[1])
}

func TestApplySubscriptionsSkipsHiddenAndBlankCategories(t *testing.T) {
	db := newTestDB(t)
	provider := &fakeProvider{failOn: map[string]error{}}
	svc := newTestService(t, db, provider)

	seedUser(t, db, 1, 1)
	seedCategory(t, db, 10, "economy", "topic-economy", 1)
	seedCategory(t, db, 20, "hidden", "topic-hidden", 0)
	seedCategory(t, db, 30, "broken", "", 1) // no topic assigned yet
	seedSubscription(t, db, 1, 10, 1)
	seedSubscription(t, db, 1, 20, 1)
	seedSubscription(t, db, 1, 30, 1)

	require.NoError(t, svc.ApplySubscriptions(context.Background(), 1, []string{"tok-a"}))

	require.Len(t, provider.calls, 1)
	assert.Equal(t, "topic-economy", provider.calls[0].topic)
}

func TestApplySubscriptionsFailFast(t *testing.T) {
	svc, provider := syncFixture(t, 1)
	provider.failOn["topic-tech"] = errors.New("provider unavailable")

	err := svc.ApplySubscriptions(context.Background(), 1, []string{"tok-a"})
	require.Error(t, err)

	// The first category's subscribe went through and stays applied, the
	// failing one was attempted, the third was never reached.
	require.Len(t, provider.calls, 2)
	assert.Equal(t, "topic-economy", provider.calls[0].topic)
	assert.Equal(t, "topic-tech", provider.calls[1].topic)
}

func TestApplySubscriptionsNoDeduplication(t *testing.T) {
	svc, provider := syncFixture(t, 1)
	tokens := []string{"tok-a"}

	require.NoError(t, svc.ApplySubscriptions(context.Background(), 1, tokens))
	firstRun := len(provider.calls)
	require.NoError(t, svc.ApplySubscriptions(context.Background(), 1, tokens))

	// Identical state issues identical calls again; idempotency is the
	// provider's problem, not ours.
	assert.Len(t, provider.calls, firstRun*2)
	assert.Equal(t, provider.calls[:firstRun], provider.calls[firstRun:])
}

func TestRemoveSubscriptionsIgnoresPushOff(t *testing.T) {
	svc, provider := syncFixture(t, 0)
	tokens := []string{"tok-a"}

	require.NoError(t, svc.RemoveSubscriptions(context.Background(), 1, tokens))

	require.Len(t, provider.calls, 3)
	for i, topic := range []string{"topic-economy", "topic-tech", "topic-culture"} {
		assert.Equal(t, providerCall{"unsubscribe", topic, tokens}, provider.calls[i])
	}
}

func TestRemoveSubscriptionsFailFast(t *testing.T) {
	svc, provider := syncFixture(t, 1)
	provider.failOn["topic-economy"] = errors.New("provider unavailable")

	err := svc.RemoveSubscriptions(context.Background(), 1, []string{"tok-a"})
	require.Error(t, err)
	require.Len(t, provider.calls, 1)
}
