package models

import (
	"gorm.io/datatypes"
)

// Feed is a named destination posts get routed to. Feeds form a tree via
// ParentFeedID; commission schedules accumulate down the ancestor chain.
type Feed struct {
	FeedID       string  `gorm:"primaryKey;type:varchar(255)"`
	ParentFeedID *string `gorm:"type:varchar(255);index"`

	// Chain-specific composed ids used to match incoming contract addresses.
	EvmFeedID *string `gorm:"type:varchar(255);index"`
	TvmFeedID *string `gorm:"type:varchar(255);index"`

	Title       string  `gorm:"type:varchar(255);not null"`
	Description string  `gorm:"type:text;not null;default:''"`
	LogoURL     *string `gorm:"type:varchar(512)"`

	IsHighlighted bool `gorm:"not null;default:false"`
	IsHidden      bool `gorm:"not null;default:false"`

	// Commissions maps a blockchain name to the minimum payment for this
	// feed, in whole-token units as a decimal string.
	Commissions datatypes.JSONMap `gorm:"type:jsonb"`
}

func (Feed) TableName() string {
	return "feeds"
}
