// Package entity defines the domain entities for the user feature.
package entity

import "time"

// User represents a registered account.
// Password and Salt are omitted from JSON when the query excluded them.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey" json:"id"`

	// Username is stored lowercased at creation and must be unique.
	Username string `gorm:"uniqueIndex;size:255;not null" json:"username"`

	// Email is optional.
	Email string `gorm:"size:255" json:"email"`

	// Password is the bcrypt hash. Never plaintext.
	Password string `gorm:"size:255;not null" json:"password,omitempty"`

	// Salt is the bcrypt salt the hash was derived from.
	Salt string `gorm:"size:64;not null" json:"salt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Posts    []Post    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
	Comments []Comment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// SecretColumns are the columns that list and get queries never select.
var SecretColumns = []string{"salt", "password"}
