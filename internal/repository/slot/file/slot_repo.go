package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bucketList/internal/logger"
	repo "bucketList/internal/repository"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Storage хранит слот в одном файле. Запись идёт во временный файл
// рядом с целевым и затем переименовывается, чтобы не оставить половину списка.
type Storage struct {
	fs     afero.Fs
	path   string
	mtx    sync.Mutex
	closed bool
}

func New(fs afero.Fs, path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("путь к файлу слота не задан")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	dir := filepath.Dir(path)
	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("проверка каталога слота: %w", err)
	}
	if !exists {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("создание каталога слота: %w", err)
		}
	}

	logger.Info("Repository: Файловый слот открыт", zap.String("path", path))
	return &Storage{fs: fs, path: path}, nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return repo.ErrSlotClosed
	}

	if _, err := s.fs.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("проверка каталога слота: %w", err)
	}
	return nil
}

func (s *Storage) Read(ctx context.Context) ([]byte, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil, repo.ErrSlotClosed
	}

	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repo.ErrSlotEmpty
		}
		return nil, fmt.Errorf("чтение файла: %w", err)
	}
	return b, nil
}

func (s *Storage) Write(ctx context.Context, value []byte) error {
	start := time.Now()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return repo.ErrSlotClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("запись файла: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("синхронизация файла: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("закрытие файла: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("переименование файла: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная запись", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.closed = true
	return nil
}
