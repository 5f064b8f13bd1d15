// Package storage persists uploaded answer media (handwritten answer images).
// The MinIO provider is the production path; the local provider backs
// development and tests.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SAP-F-2025/lms-service/internal/config"
)

// Provider abstracts the object store.
type Provider interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Download(ctx context.Context, objectName string) ([]byte, error)
	Delete(ctx context.Context, objectName string) error
	GetURL(objectName string) string
}

// NewProvider picks the provider from config. An unusable MinIO configuration
// is an error, not a silent fallback: losing student answer images to a
// misconfigured bucket must fail loudly.
func NewProvider(cfg config.StorageConfig) (Provider, error) {
	switch cfg.Provider {
	case "minio":
		return NewMinioProvider(cfg)
	case "local", "":
		return NewLocalProvider(cfg.LocalPath), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// LocalProvider stores objects on the local filesystem.
type LocalProvider struct {
	basePath string
}

func NewLocalProvider(basePath string) *LocalProvider {
	return &LocalProvider{basePath: basePath}
}

func (p *LocalProvider) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.basePath, objectName)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create object file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return objectName, nil
}

func (p *LocalProvider) Download(ctx context.Context, objectName string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(p.basePath, objectName))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	return data, nil
}

func (p *LocalProvider) Delete(ctx context.Context, objectName string) error {
	if err := os.Remove(filepath.Join(p.basePath, objectName)); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectName, err)
	}
	return nil
}

func (p *LocalProvider) GetURL(objectName string) string {
	return "/media/" + objectName
}
