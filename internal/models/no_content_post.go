package models

// NoContentPost marks a post whose payload was missing at ingestion time.
// A scheduled job retries the content fetch and deletes the row on success.
type NoContentPost struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	PostID string `gorm:"type:text;not null;uniqueIndex"`
}

func (NoContentPost) TableName() string {
	return "no_content_posts"
}
