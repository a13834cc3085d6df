// Package retention trims old view-log rows in the background so the
// append-only log does not grow without bound. The purge window is
// configuration; ranking logic never depends on it.
package retention

import (
	"context"
	"time"

	"github.com/kyeom/newsdeck/config"
	"github.com/kyeom/newsdeck/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewWorker(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB) *Worker {
	worker := &Worker{
		log:            log,
		db:             db,
		wakeupInterval: 1 * time.Hour,
		maxAge:         time.Duration(cfg.ViewLogRetentionDays) * 24 * time.Hour,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go worker.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop retention worker")
			worker.Stop()
			return nil
		},
	})

	return worker
}

type Worker struct {
	log    *zap.Logger
	db     *gorm.DB
	cancel context.CancelFunc

	wakeupInterval time.Duration // interval between purge passes
	maxAge         time.Duration // view logs older than this are purged
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	ticker := w.tickerWithImmediateTick(w.wakeupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Sugar().Info("Retention worker stopped")
			return

		case wakeupTime := <-ticker.C:
			w.purge(ctx, wakeupTime.UTC())
		}
	}
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Worker) tickerWithImmediateTick(interval time.Duration) *time.Ticker {
	withImmediateTick := make(chan time.Time, 1)

	ticker := time.NewTicker(interval)
	tickerC := ticker.C
	go func() {
		withImmediateTick <- time.Now()
		for c := range tickerC {
			withImmediateTick <- c
		}
	}()

	ticker.C = withImmediateTick
	return ticker
}

func (w *Worker) purge(ctx context.Context, wakeupTime time.Time) {
	cutoff := wakeupTime.Add(-w.maxAge)

	tx := w.db.WithContext(ctx).Delete(&models.UserViewLog{}, "viewed_time < ?", cutoff)
	if err := tx.Error; err != nil {
		w.log.Sugar().Errorf("view log purge error: %+v", err)
		return
	}
	if tx.RowsAffected > 0 {
		w.log.Sugar().Infow("Purged old view logs", "rows", tx.RowsAffected, "cutoff", cutoff)
	}
}
