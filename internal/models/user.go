package models

import (
	"gorm.io/datatypes"
)

// User keys on wallet address. PushSubscriptions holds the raw web push
// subscription objects registered from this address's browsers.
type User struct {
	Address           string         `gorm:"primaryKey;type:varchar(255)"`
	PushSubscriptions datatypes.JSON `gorm:"type:jsonb"`
}

func (User) TableName() string {
	return "users"
}
