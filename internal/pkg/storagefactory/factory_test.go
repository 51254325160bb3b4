package storagefactory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"vrewgen/internal/config"
	"vrewgen/internal/pkg/storage"
)

const baseURL = "http://localhost:8080/files"

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr bool
	}{
		{
			name: "valid local storage config",
			cfg: &config.StorageConfig{
				Type:  "local",
				Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: baseURL},
			},
		},
		{
			name:    "missing local config",
			cfg:     &config.StorageConfig{Type: "local"},
			wantErr: true,
		},
		{
			name:    "missing oss config",
			cfg:     &config.StorageConfig{Type: "oss"},
			wantErr: true,
		},
		{
			name:    "unsupported storage type",
			cfg:     &config.StorageConfig{Type: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStorage(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStorage() expected error, got nil")
				}
				if s != nil {
					t.Errorf("NewStorage() expected nil storage, got %v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStorage() unexpected error: %v", err)
			}
			if s.GetStorageType() != string(storage.StorageTypeLocal) {
				t.Errorf("GetStorageType() = %s, want local", s.GetStorageType())
			}
		})
	}
}

func TestLocalStorage_Operations(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(ctx, &config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: baseURL + "/"},
	})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	key := "sessions/abc/script_장면1.vrew"
	content := "PK fake project"

	url, err := s.Upload(ctx, key, strings.NewReader(content), storage.ContentType(key))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if want := baseURL + "/" + key; url != want {
		t.Errorf("Upload() url = %v, want %v", url, want)
	}

	exists, err := s.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true", exists, err)
	}

	reader, err := s.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	got, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != content {
		t.Errorf("Download() content = %q, want %q", got, content)
	}

	info, err := s.GetFileInfo(ctx, key)
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("GetFileInfo() Size = %v, want %v", info.Size, len(content))
	}
	if info.ContentType != "application/zip" {
		t.Errorf("GetFileInfo() ContentType = %v, want application/zip", info.ContentType)
	}
	if info.ETag == "" {
		t.Errorf("GetFileInfo() ETag is empty")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	exists, err = s.Exists(ctx, key)
	if err != nil || exists {
		t.Errorf("Exists() after delete = %v, %v; want false", exists, err)
	}
}

func TestLocalStorage_NonExistentFile(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(ctx, &config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: baseURL},
	})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	key := "nonexistent/file.vrew"

	if _, err := s.Download(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetFileInfo(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetFileInfo() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v, should succeed for non-existent file", err)
	}
}

func TestLocalStorage_KeyEscape(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewStorage(ctx, &config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: base, BaseURL: baseURL},
	})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if _, err := s.Upload(ctx, "../../escape.txt", strings.NewReader("x"), "text/plain"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	exists, err := s.Exists(ctx, "escape.txt")
	if err != nil || !exists {
		t.Errorf("escaping key should be confined to the base path, Exists() = %v, %v", exists, err)
	}
}
