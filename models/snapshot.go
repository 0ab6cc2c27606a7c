package models

import "time"

// Snapshot statuses. A snapshot is created pending when a batch is parsed and
// becomes confirmed once the user has reviewed (and possibly corrected) it.
const (
	SnapshotPending   = "pending"
	SnapshotConfirmed = "confirmed"
)

// StatSnapshot is the review/confirm unit produced from one upload batch: the
// merged parse result, then the user-corrected record after review.
type StatSnapshot struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ProfileID  uint    `gorm:"index;not null"`
	Profile    Profile `gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Status     string  `gorm:"size:16;not null;default:pending;index"`
	PlayerName string  `gorm:"size:64"` // as recovered/corrected, may be empty
	Values     []StatValue `gorm:"foreignKey:SnapshotID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// StatValue is one recovered statistic of a snapshot. Key is a statparse
// StatKey string; absent keys simply have no row. Corrected marks values the
// user changed during review.
type StatValue struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	SnapshotID uint   `gorm:"index;not null;uniqueIndex:idx_snapshot_key"`
	Key        string `gorm:"size:64;not null;uniqueIndex:idx_snapshot_key"`
	Value      int64  `gorm:"not null"`
	Confidence string `gorm:"size:16"` // label, position, or empty once corrected in
	Corrected  bool   `gorm:"default:false"`
}
