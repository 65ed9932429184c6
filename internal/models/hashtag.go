package models

type Hashtag struct {
	Name string `gorm:"primaryKey;type:varchar(255)"`
}

func (Hashtag) TableName() string {
	return "hashtags"
}

// PostHashtag links a post to a hashtag extracted from its text.
type PostHashtag struct {
	PostID      string `gorm:"primaryKey;type:text"`
	HashtagName string `gorm:"primaryKey;type:varchar(255);index"`
}

func (PostHashtag) TableName() string {
	return "feed_post_hashtags"
}
