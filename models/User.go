package models

import (
	"time"
)

// User is the identity record. ID is a UUID in the relational and memory
// stores and an ObjectID hex string in the document store.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	Email        string    `gorm:"uniqueIndex;size:320;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}
