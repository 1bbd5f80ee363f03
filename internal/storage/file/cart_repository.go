// Пакет file хранит корзины на диске: один JSON-документ на сессию.
// Долговечность best-effort, битые файлы не фатальны.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

const cartFileSuffix = ".cart.json"

// cartRepositoryOnDisk — файловая реализация CartRepository.
type cartRepositoryOnDisk struct {
	dir string
}

// NewCartRepository создаёт файловое хранилище корзин в каталоге dir.
func NewCartRepository(dir string) (domain.CartRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("cart directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart directory: %w", err)
	}
	return &cartRepositoryOnDisk{dir: dir}, nil
}

// Load читает позиции сессии. Повреждённый файл трактуется как отсутствие
// корзины: ErrCartNotFound, чтобы сессия стартовала с пустой корзиной.
func (r *cartRepositoryOnDisk) Load(sessionID string) ([]domain.CartLine, error) {
	path, err := r.path(sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, domain.ErrCartNotFound
	}
	return domain.ValidLines(lines), nil
}

// Save атомарно перезаписывает файл сессии через временный файл и rename.
func (r *cartRepositoryOnDisk) Save(sessionID string, lines []domain.CartLine) error {
	path, err := r.path(sessionID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart lines: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "cart-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cart file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp cart file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename cart file: %w", err)
	}
	return nil
}

// Delete удаляет файл сессии; отсутствие файла — no-op.
func (r *cartRepositoryOnDisk) Delete(sessionID string) error {
	path, err := r.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cart file: %w", err)
	}
	return nil
}

// path строит путь файла сессии, запрещая выход за пределы каталога.
func (r *cartRepositoryOnDisk) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrSessionRequired
	}
	if strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(r.dir, sessionID+cartFileSuffix), nil
}

var _ domain.CartRepository = (*cartRepositoryOnDisk)(nil)
