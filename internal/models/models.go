package models

import (
	"gorm.io/gorm"
)

// User is a registered account. The password is stored only as a bcrypt hash.
type User struct {
	gorm.Model
	Name         string   `gorm:"uniqueIndex;not null"`
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Cafes        []Cafe   `gorm:"foreignKey:UserID"`
	Reviews      []Review `gorm:"foreignKey:UserID"`
}

// Cafe is a listed venue, owned by the user who added it.
// Amenity flags are stored as 0/1 integers.
type Cafe struct {
	gorm.Model
	Name         string `gorm:"uniqueIndex;not null"`
	MapURL       string `gorm:"uniqueIndex;not null"`
	ImgURL       string `gorm:"not null"`
	Location     string `gorm:"not null"`
	HasSockets   int    `gorm:"not null"`
	HasToilet    int    `gorm:"not null"`
	HasWifi      int    `gorm:"not null"`
	CanTakeCalls int    `gorm:"not null"`
	Seats        int    `gorm:"not null"`
	CoffeePrice  string `gorm:"not null"`
	UserID       uint
	User         User
	Reviews      []Review `gorm:"foreignKey:CafeID"`
}

// Review is a comment left on a cafe by a user.
type Review struct {
	gorm.Model
	Content string `gorm:"not null"`
	UserID  uint
	CafeID  uint
	User    User
}
