package settings

import (
	"context"
	"errors"
	"time"

	"github.com/erp/console/internal/domain/settings"
	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Backup errors
var (
	ErrBackupsDisabled = shared.NewDomainError("BACKUPS_DISABLED", "Settings backups are not configured")
	ErrBackupNotFound  = shared.NewDomainError("BACKUP_NOT_FOUND", "Settings backup not found")
)

// BackupDownloadTTL is how long a backup download link stays valid
const BackupDownloadTTL = 15 * time.Minute

// BackupResult describes a stored backup
type BackupResult struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"download_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Backup uploads the exported namespace as a JSON object
func (s *Service) Backup(ctx context.Context) (*BackupResult, error) {
	if s.backups == nil {
		return nil, ErrBackupsDisabled
	}
	data, err := s.store.ExportJSON(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := s.backupName(now)
	if err := s.backups.Upload(ctx, key, data, "application/json"); err != nil {
		return nil, err
	}

	res := &BackupResult{Key: key, Size: int64(len(data)), CreatedAt: now}
	url, expiresAt, err := s.backups.GenerateDownloadURL(ctx, key, BackupDownloadTTL)
	if err != nil {
		s.logger.Warn("backup stored without download link", zap.String("key", key), zap.Error(err))
	} else {
		res.DownloadURL = url
		res.ExpiresAt = expiresAt
	}

	s.audit.Record(ctx, "settings.backup", zap.String("key", key), zap.Int("bytes", len(data)))
	return res, nil
}

// ListBackups returns the stored backups, oldest first
func (s *Service) ListBackups(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.backups == nil {
		return nil, ErrBackupsDisabled
	}
	return s.backups.List(ctx, s.backupPrefix+"settings-")
}

// Restore imports the backup stored under key, or the latest backup when
// key is empty, and returns the reloaded settings
func (s *Service) Restore(ctx context.Context, key string) (settings.Settings, error) {
	if s.backups == nil {
		return settings.Settings{}, ErrBackupsDisabled
	}
	if key == "" {
		latest, err := s.latestBackup(ctx)
		if err != nil {
			return settings.Settings{}, err
		}
		key = latest
	}

	data, err := s.backups.Download(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return settings.Settings{}, ErrBackupNotFound
	}
	if err != nil {
		return settings.Settings{}, err
	}

	if err := s.store.Import(ctx, data); err != nil {
		if errors.Is(err, shared.ErrStorageWrite) {
			s.metrics.RecordStorageFailure(ctx)
		}
		return settings.Settings{}, err
	}
	restored, err := s.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	s.audit.Record(ctx, "settings.restore", zap.String("key", key))
	return restored, nil
}

func (s *Service) latestBackup(ctx context.Context) (string, error) {
	objects, err := s.ListBackups(ctx)
	if err != nil {
		return "", err
	}
	latest := ""
	for _, o := range objects {
		if o.Key > latest {
			latest = o.Key
		}
	}
	if latest == "" {
		return "", ErrBackupNotFound
	}
	return latest, nil
}
