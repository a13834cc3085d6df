package models

// NewsCategory is reference data; rows are created through the
// find-or-create path and never deleted, only hidden via Status.
type NewsCategory struct {
	Idx      uint   `gorm:"primaryKey;column:idx"`
	Category string `gorm:"column:category;uniqueIndex"`
	FCMTopic string `gorm:"column:fcm_topic"`
	Status   int    `gorm:"column:status"`
}

func (NewsCategory) TableName() string { return "news_categories" }

type NewsCategories []NewsCategory

// UserCategorySubscription holds one row per (user, category) pair.
// Only NotificationOption is mutated here; the rows themselves are
// created by the subscription flow at sign-up.
type UserCategorySubscription struct {
	UserIdx            uint `gorm:"column:user_idx;index:idx_user_category"`
	CategoryIdx        uint `gorm:"column:category_idx;index:idx_user_category"`
	NotificationOption int  `gorm:"column:notification_option"`
}

func (UserCategorySubscription) TableName() string { return "user_category_subscriptions" }

type NewsCategoriesMap struct {
	CategoryIdx uint `gorm:"column:category_idx;index"`
	NewsIdx     uint `gorm:"column:news_idx;index"`
}

func (NewsCategoriesMap) TableName() string { return "news_categories_map" }
