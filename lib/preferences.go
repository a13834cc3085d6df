package lib

import (
	"context"
	"errors"

	"github.com/kyeom/newsdeck/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanNone is returned when the user has no active plan row.
const PlanNone = "none"

type preferences struct {
	log *zap.Logger
	db  *gorm.DB
}

// PushOnOff reads the user's master push switch. A missing user surfaces as
// ErrUserNotFound, not as push-off.
func (svc *preferences) PushOnOff(ctx context.Context, userIdx uint) (bool, error) {
	var user models.User
	tx := svc.db.WithContext(ctx).First(&user, "idx = ?", userIdx)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return false, ErrUserNotFound
	}
	if tx.Error != nil {
		svc.log.Sugar().Errorw("push on/off lookup failed", "user_idx", userIdx, "err", tx.Error)
		return false, tx.Error
	}
	return user.PushOn != 0, nil
}

// SetPushOnOff reports whether a row was actually updated, so callers can
// tell "unknown user" apart from success.
func (svc *preferences) SetPushOnOff(ctx context.Context, userIdx uint, on bool) (bool, error) {
	value := 0
	if on {
		value = 1
	}
	tx := svc.db.WithContext(ctx).
		Model(&models.User{}).
		Where("idx = ?", userIdx).
		Update("push_on", value)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("push on/off update failed", "user_idx", userIdx, "err", tx.Error)
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// CategorySubscriptions holds three parallel slices of equal length, one
// entry per visible category the user is subscribed to.
type CategorySubscriptions struct {
	Categories []string
	Topics     []string
	Options    []int
}

func (svc *preferences) CategorySubscriptions(ctx context.Context, userIdx uint) (CategorySubscriptions, error) {
	var rows []struct {
		Category           string
		FcmTopic           string
		NotificationOption int
	}
	tx := svc.db.WithContext(ctx).
		Model(&models.UserCategorySubscription{}).
		Distinct("user_category_subscriptions.category_idx", "news_categories.category", "news_categories.fcm_topic", "user_category_subscriptions.notification_option").
		Joins("JOIN news_categories ON news_categories.idx = user_category_subscriptions.category_idx").
		Where("user_category_subscriptions.user_idx = ?", userIdx).
		Where("news_categories.status = ?", 1).
		Order("user_category_subscriptions.category_idx").
		Scan(&rows)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("category subscription lookup failed", "user_idx", userIdx, "err", tx.Error)
		return CategorySubscriptions{}, tx.Error
	}

	var subs CategorySubscriptions
	for _, row := range rows {
		// A blank name or topic makes the row unusable for topic sync;
		// drop the whole row to keep the slices aligned.
		if row.Category == "" || row.FcmTopic == "" {
			continue
		}
		subs.Categories = append(subs.Categories, row.Category)
		subs.Topics = append(subs.Topics, row.FcmTopic)
		subs.Options = append(subs.Options, row.NotificationOption)
	}
	return subs, nil
}

func (svc *preferences) SetCategoryNotificationOption(ctx context.Context, userIdx, categoryIdx uint, option int) (bool, error) {
	tx := svc.db.WithContext(ctx).
		Model(&models.UserCategorySubscription{}).
		Where("user_idx = ? AND category_idx = ?", userIdx, categoryIdx).
		Update("notification_option", option)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("notification option update failed",
			"user_idx", userIdx, "category_idx", categoryIdx, "err", tx.Error)
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (svc *preferences) CurrentPlan(ctx context.Context, userIdx uint) (string, error) {
	var plan models.UserCurrentPlan
	tx := svc.db.WithContext(ctx).
		Where("user_idx = ? AND status = ?", userIdx, 1).
		First(&plan)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return PlanNone, nil
	}
	if tx.Error != nil {
		svc.log.Sugar().Errorw("current plan lookup failed", "user_idx", userIdx, "err", tx.Error)
		return "", tx.Error
	}
	return plan.Plan, nil
}

// SetMarketingConsent inserts on first answer, updates when the answer
// changed, and touches nothing when the stored value already matches.
func (svc *preferences) SetMarketingConsent(ctx context.Context, userIdx uint, consent bool) error {
	value := 0
	if consent {
		value = 1
	}

	var row models.MarketingConsent
	tx := svc.db.WithContext(ctx).First(&row, "user_idx = ?", userIdx)
	switch {
	case errors.Is(tx.Error, gorm.ErrRecordNotFound):
		return svc.db.WithContext(ctx).
			Create(&models.MarketingConsent{UserIdx: userIdx, Consent: value}).Error

	case tx.Error != nil:
		svc.log.Sugar().Errorw("marketing consent lookup failed", "user_idx", userIdx, "err", tx.Error)
		return tx.Error

	case row.Consent == value:
		return nil

	default:
		return svc.db.WithContext(ctx).
			Model(&models.MarketingConsent{}).
			Where("user_idx = ?", userIdx).
			Update("consent", value).Error
	}
}
