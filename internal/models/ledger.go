package models

import "time"

// LedgerTableName is the table holding the migration ledger. The table is
// owned by the engine and is excluded from the fresh sweep.
const LedgerTableName = "rung_migrations"

// LedgerEntry records one applied migration. Name is unique for the
// lifetime of the entry; Batch groups the migrations applied by a single
// run and is never reused after the batch is rolled back.
type LedgerEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Batch     int       `gorm:"not null;index"`
	AppliedAt time.Time `gorm:"not null"`
}

func (LedgerEntry) TableName() string {
	return LedgerTableName
}
