package models

import (
	"gorm.io/datatypes"
)

// Post is a classified broadcast message. Its ID is the message id assigned
// by the chain indexer, which makes re-ingestion idempotent.
type Post struct {
	ID              string  `gorm:"primaryKey;type:text"`
	CreateTimestamp int64   `gorm:"not null;index;index:idx_posts_feed_window,priority:3;index:idx_posts_origin_window,priority:3"`
	FeedID          *string `gorm:"type:varchar(255);index;index:idx_posts_feed_window,priority:2"`
	OriginalFeedID  string  `gorm:"type:varchar(255);not null;index;index:idx_posts_origin_window,priority:2"`
	Blockchain      string  `gorm:"type:varchar(255);not null;index"`
	Sender          string  `gorm:"type:text;not null;index"`

	Meta        datatypes.JSON `gorm:"type:jsonb;not null"`
	Content     datatypes.JSON `gorm:"type:jsonb"`
	ContentText string         `gorm:"type:text;not null;default:''"`

	Banned            bool `gorm:"not null;default:false;index:idx_posts_feed_window,priority:1;index:idx_posts_origin_window,priority:1"`
	IsAutobanned      bool `gorm:"not null;default:false"`
	IsPredefined      bool `gorm:"not null;default:false"`
	IsApproved        bool `gorm:"not null;default:false"`
	IsCommissionValid bool `gorm:"not null;default:true"`

	ExtraPayment    string `gorm:"type:varchar(255);not null;default:'0'"`
	ContractAddress string `gorm:"type:varchar(255);not null;default:''"`
}

func (Post) TableName() string {
	return "feed_posts"
}
