package models

// NumberSequence backs the human-readable request and quote numbering.
// One row per (scope, year); the counter is bumped inside the owning
// transaction so numbers are unique and never reused.
type NumberSequence struct {
	Scope   string `gorm:"column:scope;primaryKey"`
	Year    int    `gorm:"column:year;primaryKey"`
	Counter int64  `gorm:"column:counter;not null;default:0"`
}
