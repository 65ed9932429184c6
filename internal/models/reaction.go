package models

// PostReaction stores one emoji per address per post. Reacting again
// overwrites the previous emoji.
type PostReaction struct {
	PostID  string `gorm:"primaryKey;type:text"`
	Address string `gorm:"primaryKey;type:varchar(255)"`
	Emoji   string `gorm:"type:varchar(16);not null"`
}

func (PostReaction) TableName() string {
	return "feed_post_reactions"
}
