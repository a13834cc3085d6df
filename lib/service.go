package lib

import (
	"errors"
	"net/http"
	"time"

	"github.com/kyeom/newsdeck/config"
	"github.com/kyeom/newsdeck/push"
	"github.com/kyeom/newsdeck/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUserNotFound distinguishes an absent user from an empty result or a
// storage failure. Callers branch on it.
var ErrUserNotFound = errors.New("user not found")

type Service struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	senders senders.Registry

	*preferences
	*topicSync
	*ranker
	*catalog
	*library
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, provider push.Provider, senders senders.Registry, transport http.RoundTripper) *Service {
	now := func() time.Time { return time.Now().UTC() }

	prefs := &preferences{log, db}
	return &Service{
		cfg, log, db, senders,
		prefs,
		&topicSync{log, prefs, provider},
		&ranker{log, db, now},
		&catalog{log, db, now},
		&library{log, db, transport, now},
	}
}
