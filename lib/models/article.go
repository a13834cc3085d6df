package models

import "time"

const (
	ArticleTypeNews    = "news"
	ArticleTypeInsight = "insight"
	ArticleTypeSummary = "summary"
)

type News struct {
	Idx         uint      `gorm:"primaryKey;column:idx"`
	Title       string    `gorm:"column:title"`
	From        string    `gorm:"column:from"`
	URL         string    `gorm:"column:url"`
	ImageURL    string    `gorm:"column:image_url"`
	CreatedTime time.Time `gorm:"column:created_time"`
	Status      int       `gorm:"column:status"`
}

func (News) TableName() string { return "news" }

// UserViewLog is append-only; the ranking queries read it, the retention
// worker purges it, nothing updates it in place.
type UserViewLog struct {
	Idx         uint      `gorm:"primaryKey;column:idx"`
	UserIdx     uint      `gorm:"column:user_idx;index"`
	ArticleType string    `gorm:"column:article_type"`
	ArticleIdx  uint      `gorm:"column:article_idx;index"`
	ViewedTime  time.Time `gorm:"column:viewed_time;index"`
}

func (UserViewLog) TableName() string { return "user_view_logs" }

type UserSavedArticle struct {
	Idx         uint      `gorm:"primaryKey;column:idx"`
	UserIdx     uint      `gorm:"column:user_idx;index"`
	ArticleType string    `gorm:"column:article_type"`
	ArticleIdx  uint      `gorm:"column:article_idx"`
	Status      int       `gorm:"column:status"`
	UpdatedTime time.Time `gorm:"column:updated_time"`
}

func (UserSavedArticle) TableName() string { return "user_saved_articles" }

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&MarketingConsent{},
		&UserCurrentPlan{},
		&NewsCategory{},
		&UserCategorySubscription{},
		&NewsCategoriesMap{},
		&News{},
		&UserViewLog{},
		&UserSavedArticle{},
	}
}
