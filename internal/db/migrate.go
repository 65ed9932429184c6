package db

import (
	"blockfeed/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Feed{},
		&models.Post{},
		&models.PostReaction{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.NoContentPost{},
		&models.Admin{},
		&models.BannedAddress{},
		&models.PredefinedText{},
		&models.User{},
	)
}
