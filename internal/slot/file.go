package slot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore хранит каждый слот в отдельном файле каталога Dir
type FileStore struct {
	Dir        string
	QuotaBytes int64
}

func NewFileStore(dir string, quotaBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}
	return &FileStore{Dir: dir, QuotaBytes: quotaBytes}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.Dir, key), nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if s.QuotaBytes > 0 {
		used, err := s.usedBytes(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.QuotaBytes {
			return ErrQuotaExceeded
		}
	}

	// Пишем во временный файл и переименовываем, чтобы не оставить половину снимка
	tmp, err := os.CreateTemp(s.Dir, "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

// usedBytes суммирует размер всех слотов, кроме перезаписываемого
func (s *FileStore) usedBytes(except string) (int64, error) {
	files, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("read slot dir: %w", err)
	}

	var used int64
	for _, f := range files {
		if f.IsDir() || f.Name() == except || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		used += info.Size()
	}
	return used, nil
}
