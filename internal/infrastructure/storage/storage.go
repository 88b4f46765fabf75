// Package storage keeps settings backups in object storage.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrObjectNotFound is returned when a key does not exist in the bucket
	ErrObjectNotFound = errors.New("object not found")

	// ErrEmptyKey is returned when an operation gets an empty storage key
	ErrEmptyKey = errors.New("storage key is required")
)

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStorage is the subset of object storage the console needs for backups
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	Download(ctx context.Context, storageKey string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, storageKey string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}
