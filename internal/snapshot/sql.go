package snapshot

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/rocketcart/pkg/db"
)

type snapshotRecord struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (snapshotRecord) TableName() string {
	return "cart_snapshots"
}

// SQLBackend keeps snapshots in the cart_snapshots table, one row per key.
type SQLBackend struct {
	client *db.Client
	now    func() time.Time
}

func NewSQLBackend(client *db.Client) *SQLBackend {
	return &SQLBackend{client: client, now: time.Now}
}

func (s *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var rec snapshotRecord
	err := s.client.DB().WithContext(ctx).
		Where(&snapshotRecord{Key: key}).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Payload), nil
}

func (s *SQLBackend) Set(ctx context.Context, key string, value []byte) error {
	rec := snapshotRecord{Key: key, Payload: string(value), UpdatedAt: s.now().UTC()}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&rec).Error
	})
}

func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	return s.client.DB().WithContext(ctx).
		Where(&snapshotRecord{Key: key}).
		Delete(&snapshotRecord{}).Error
}

func (s *SQLBackend) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
