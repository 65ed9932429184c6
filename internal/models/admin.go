package models

// Admin grants an address moderation rights over one feed. Title, rank and
// emoji are decoration attached to the admin's posts in read responses.
type Admin struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	CreateTimestamp int64  `gorm:"not null"`
	FeedID          string `gorm:"type:varchar(255);not null;index"`
	Address         string `gorm:"type:varchar(255);not null;index"`
	Title           string `gorm:"type:varchar(255);not null;default:''"`
	Rank            string `gorm:"type:varchar(64);not null;default:'Mod'"`
	Emoji           string `gorm:"type:varchar(16);not null;default:''"`
}

func (Admin) TableName() string {
	return "admins"
}
