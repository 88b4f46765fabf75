package kvstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/console/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend stores entries in the kv_entries table
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a backend over db. The kv_entries table must exist.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Get implements Backend
func (b *GormBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntryModel
	err := b.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set implements Backend
func (b *GormBackend) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntryModel{Key: key, Value: value, UpdatedAt: time.Now()}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Delete implements Backend
func (b *GormBackend) Delete(ctx context.Context, key string) error {
	return b.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&models.KVEntryModel{}).Error
}

// Keys implements Backend
func (b *GormBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.db.WithContext(ctx).Model(&models.KVEntryModel{}).
		Where(`entry_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Pluck("entry_key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so the default prefix "erp_config_"
// matches literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
