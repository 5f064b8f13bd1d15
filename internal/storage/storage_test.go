package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/SAP-F-2025/lms-service/internal/config"
)

func TestLocalProvider_UploadDownloadDelete(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	ctx := context.Background()

	payload := []byte("handwritten answer image bytes")
	path, err := provider.Upload(ctx, "submissions/1/q42.png", bytes.NewReader(payload), int64(len(payload)), "image/png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if path != "submissions/1/q42.png" {
		t.Errorf("Upload returned path %q", path)
	}

	got, err := provider.Download(ctx, "submissions/1/q42.png")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("downloaded bytes differ from uploaded bytes")
	}

	if err := provider.Delete(ctx, "submissions/1/q42.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := provider.Download(ctx, "submissions/1/q42.png"); err == nil {
		t.Error("expected error downloading deleted object")
	}
}

func TestLocalProvider_DownloadMissing(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	_, err := provider.Download(context.Background(), "absent.png")
	if err == nil {
		t.Fatal("expected error for missing object")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(config.StorageConfig{Provider: "s4"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewProvider_DefaultsToLocal(t *testing.T) {
	provider, err := NewProvider(config.StorageConfig{LocalPath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if _, ok := provider.(*LocalProvider); !ok {
		t.Errorf("expected LocalProvider, got %T", provider)
	}
}
