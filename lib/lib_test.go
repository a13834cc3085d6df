package lib

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kyeom/newsdeck/config"
	"github.com/kyeom/newsdeck/lib/models"
	"github.com/kyeom/newsdeck/push"
	"github.com/kyeom/newsdeck/senders"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var testDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache memory database, so every pooled connection
	// sees the same tables.
	dsn := fmt.Sprintf("file:libtest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, provider push.Provider) *Service {
	t.Helper()

	log := zap.NewNop()
	now := func() time.Time { return fixedNow }
	prefs := &preferences{log, db}
	return &Service{
		cfg:         &config.Config{},
		log:         log,
		db:          db,
		senders:     senders.Registry{},
		preferences: prefs,
		topicSync:   &topicSync{log, prefs, provider},
		ranker:      &ranker{log, db, now},
		catalog:     &catalog{log, db, now},
		library:     &library{log, db, http.DefaultTransport, now},
	}
}

type providerCall struct {
	op     string
	topic  string
	tokens []string
}

type fakeProvider struct {
	calls  []providerCall
	failOn map[string]error // keyed by topic
}

func (f *fakeProvider) SubscribeTokensToTopic(_ context.Context, topic string, tokens []string) error {
	f.calls = append(f.calls, providerCall{"subscribe", topic, tokens})
	return f.failOn[topic]
}

func (f *fakeProvider) UnsubscribeTokensFromTopic(_ context.Context, topic string, tokens []string) error {
	f.calls = append(f.calls, providerCall{"unsubscribe", topic, tokens})
	return f.failOn[topic]
}

func seedUser(t *testing.T, db *gorm.DB, idx uint, pushOn int) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{Idx: idx, PushOn: pushOn, CreatedTime: fixedNow}).Error)
}

func seedCategory(t *testing.T, db *gorm.DB, idx uint, name, topic string, status int) {
	t.Helper()
	require.NoError(t, db.Create(&models.NewsCategory{Idx: idx, Category: name, FCMTopic: topic, Status: status}).Error)
}

func seedSubscription(t *testing.T, db *gorm.DB, userIdx, categoryIdx uint, option int) {
	t.Helper()
	require.NoError(t, db.Create(&models.UserCategorySubscription{
		UserIdx: userIdx, CategoryIdx: categoryIdx, NotificationOption: option,
	}).Error)
}

func seedNews(t *testing.T, db *gorm.DB, idx uint, title string, created time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.News{
		Idx: idx, Title: title, From: "wire", URL: fmt.Sprintf("https://news.example/%d", idx),
		CreatedTime: created, Status: 1,
	}).Error)
}

func seedView(t *testing.T, db *gorm.DB, userIdx, articleIdx uint, viewed time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.UserViewLog{
		UserIdx: userIdx, ArticleType: models.ArticleTypeNews, ArticleIdx: articleIdx, ViewedTime: viewed,
	}).Error)
}
