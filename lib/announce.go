package lib

import (
	"context"
	"errors"

	"github.com/kyeom/newsdeck/lib/models"
)

// Announce emails a marketing announcement to every user who granted
// marketing consent. Unlike topic sync, a single failed recipient does not
// stop the rest; marketing mail is best-effort per recipient.
func (svc *Service) Announce(ctx context.Context, subject, body string) (int, error) {
	sender, ok := svc.senders["email"]
	if !ok {
		return 0, errors.New("no email sender configured")
	}

	var recipients []models.User
	tx := svc.db.WithContext(ctx).
		Joins("JOIN marketing_consent ON marketing_consent.user_idx = users.idx").
		Where("marketing_consent.consent = ?", 1).
		Where("users.email <> ''").
		Find(&recipients)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("announcement recipient query failed", "err", tx.Error)
		return 0, tx.Error
	}

	sent := 0
	for _, user := range recipients {
		id, err := sender.Send(ctx, subject, body, user.Email)
		if err != nil {
			svc.log.Sugar().Warnw("announcement send failed", "user_idx", user.Idx, "err", err)
			continue
		}
		svc.log.Sugar().Infow("announcement sent", "user_idx", user.Idx, "message_id", id)
		sent++
	}
	return sent, nil
}
