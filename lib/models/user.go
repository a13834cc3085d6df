package models

import "time"

type User struct {
	Idx         uint      `gorm:"primaryKey;column:idx"`
	Email       string    `gorm:"column:email"`
	PushOn      int       `gorm:"column:push_on"`
	CreatedTime time.Time `gorm:"column:created_time"`
}

func (User) TableName() string { return "users" }

// MarketingConsent is absent until the user answers the consent prompt
// for the first time.
type MarketingConsent struct {
	UserIdx uint `gorm:"primaryKey;column:user_idx"`
	Consent int  `gorm:"column:consent"`
}

func (MarketingConsent) TableName() string { return "marketing_consent" }

type UserCurrentPlan struct {
	Idx     uint   `gorm:"primaryKey;column:idx"`
	UserIdx uint   `gorm:"column:user_idx;index"`
	Plan    string `gorm:"column:plan"`
	Status  int    `gorm:"column:status"`
}

func (UserCurrentPlan) TableName() string { return "user_current_plan" }
