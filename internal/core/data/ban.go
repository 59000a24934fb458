package data

import (
	"time"

	"gorm.io/gorm"
)

// BanRecord is the audit trail entry written whenever a host kicks a
// player with the ban option. Game ban lists themselves are in-memory and
// per-game; these rows exist for operators.
type BanRecord struct {
	ID       uint64 `gorm:"primaryKey"`
	Address  string `gorm:"index; not null"`
	GameCode string `gorm:"not null"`
	PlayerID int32
	BannedAt time.Time
}

// CreateBanRecord persists the BanRecord to the database.
func CreateBanRecord(db *gorm.DB, record *BanRecord) error {
	if record.BannedAt.IsZero() {
		record.BannedAt = time.Now()
	}
	return db.Create(record).Error
}

// FindBanRecordsByAddress returns every ban ever recorded against an address.
func FindBanRecordsByAddress(db *gorm.DB, address string) ([]BanRecord, error) {
	var records []BanRecord
	err := db.Where("address = ?", address).Order("banned_at").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListBanRecords returns the most recent ban records up to limit.
func ListBanRecords(db *gorm.DB, limit int) ([]BanRecord, error) {
	var records []BanRecord
	err := db.Order("banned_at desc").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
