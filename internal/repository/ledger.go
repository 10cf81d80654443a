package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/openrung/rung/internal/models"
	"gorm.io/gorm"
)

var (
	ErrAlreadyRecorded = errors.New("migration already recorded in ledger")
	ErrNotRecorded     = errors.New("migration not recorded in ledger")
)

func HasLedgerTable(db *gorm.DB) bool {
	return db.Migrator().HasTable(models.LedgerTableName)
}

func EnsureLedgerTable(db *gorm.DB) error {
	if HasLedgerTable(db) {
		return nil
	}
	return db.AutoMigrate(&models.LedgerEntry{})
}

// InsertEntry records a successfully applied migration. The caller is
// expected to run it inside the same transaction as the schema work when
// the backend allows it.
func InsertEntry(db *gorm.DB, name string, batch int, appliedAt time.Time) (models.LedgerEntry, error) {
	var count int64
	err := db.Model(&models.LedgerEntry{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if count > 0 {
		return models.LedgerEntry{}, ErrAlreadyRecorded
	}

	entry := models.LedgerEntry{
		Name:      name,
		Batch:     batch,
		AppliedAt: appliedAt,
	}
	if err = db.Create(&entry).Error; err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

// DeleteEntry removes the ledger record of a reverted migration.
func DeleteEntry(db *gorm.DB, name string) error {
	res := db.Where("name = ?", name).Delete(&models.LedgerEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotRecorded
	}
	return nil
}

// LatestBatch returns the highest batch number present, or zero when the
// ledger is empty.
func LatestBatch(db *gorm.DB) (int, error) {
	var batch sql.NullInt64
	err := db.Model(&models.LedgerEntry{}).Select("MAX(batch)").Scan(&batch).Error
	if err != nil {
		return 0, err
	}
	if !batch.Valid {
		return 0, nil
	}
	return int(batch.Int64), nil
}

// EntriesInBatch returns the entries of one batch in insertion order.
// Rollback depends on this order to undo the most recently applied
// migration of the batch first.
func EntriesInBatch(db *gorm.DB, batch int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := db.Where("batch = ?", batch).Order("id ASC").Find(&entries).Error
	return entries, err
}

// AllEntries returns the whole ledger in insertion order.
func AllEntries(db *gorm.DB) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := db.Order("id ASC").Find(&entries).Error
	return entries, err
}

// AppliedSet returns the set of applied migration names.
func AppliedSet(db *gorm.DB) (map[string]struct{}, error) {
	var names []string
	err := db.Model(&models.LedgerEntry{}).Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}

	applied := make(map[string]struct{}, len(names))
	for _, name := range names {
		applied[name] = struct{}{}
	}
	return applied, nil
}

// DeleteAll truncates the ledger. Used by fresh, which rebuilds the schema
// from nothing.
func DeleteAll(db *gorm.DB) error {
	return db.Where("1 = 1").Delete(&models.LedgerEntry{}).Error
}
