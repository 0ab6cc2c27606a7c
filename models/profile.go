package models

import "time"

// Profile represents a player's profile (one-to-one with User). PlayerName is
// the in-game handle; it gets filled in from the first confirmed snapshot
// when the user never set it by hand.
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	// Active indicates whether the profile is active. Soft-state instead of
	// physically deleting the record. Defaults to true.
	Active     bool   `gorm:"default:true;not null"`
	UserID     uint   `gorm:"uniqueIndex;not null"` // one-to-one relation
	User       User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PlayerName string `gorm:"size:64"`
	// Screenshots is a one-to-many relation from Profile to Screenshot
	Screenshots []Screenshot   `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Snapshots   []StatSnapshot `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
