package models

import "time"

// Screenshot is one uploaded stat-screen image. BatchIndex preserves the
// order within an upload batch; the merger breaks same-confidence ties by
// that order, so it must survive persistence.
type Screenshot struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileName    string  `gorm:"size:255;not null"`
	StorePath   string  `gorm:"column:store_path;size:512"`
	ContentType string  `gorm:"size:128"`
	ProfileID   uint    `gorm:"index;not null"`
	Profile     Profile `gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SnapshotID  *uint   `gorm:"index"` // FK to stat_snapshots.id (nullable until parsed)
	BatchIndex  int     `gorm:"not null;default:0"`
	Layout      string  `gorm:"size:32"` // detected layout, informational
	// OCR failure is recorded, not deleted, so the user can retry or review.
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
