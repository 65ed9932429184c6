package models

// BannedAddress marks a sender whose posts are auto-banned on ingestion.
type BannedAddress struct {
	Address string `gorm:"primaryKey;type:varchar(255)"`
}

func (BannedAddress) TableName() string {
	return "banned_addresses"
}

// PredefinedText is boilerplate that marks a post as predefined instead of
// surfacing it in feeds.
type PredefinedText struct {
	Text string `gorm:"primaryKey;type:text"`
}

func (PredefinedText) TableName() string {
	return "predefined_texts"
}
