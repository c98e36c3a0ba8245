package pin

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one derived PIN, keyed by CPF. The in-memory mapping held by
// Service is mirrored to this table on every mutation.
type Record struct {
	CPF       string    `gorm:"primaryKey;type:varchar(11)"`
	Pin       string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Record) TableName() string { return "pin_records" }

// Store is the durable mirror of the PIN mapping.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	// Replace persists the full mapping, superseding whatever was stored.
	Replace(ctx context.Context, records []Record) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) Replace(ctx context.Context, records []Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Record{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&records).Error
	})
}
