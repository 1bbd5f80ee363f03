package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string][]domain.CartLine
}

// NewCartRepository возвращает in-memory хранилище корзин для локальной
// разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string][]domain.CartLine),
	}
}

// Load возвращает позиции сессии или ErrCartNotFound.
func (r *cartRepositoryInMemory) Load(sessionID string) ([]domain.CartLine, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lines, ok := r.items[sessionID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	result := make([]domain.CartLine, len(lines))
	copy(result, lines)
	return result, nil
}

// Save перезаписывает позиции сессии целиком.
func (r *cartRepositoryInMemory) Save(sessionID string, lines []domain.CartLine) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	stored := make([]domain.CartLine, len(lines))
	copy(stored, lines)
	r.items[sessionID] = stored
	return nil
}

// Delete удаляет корзину сессии; отсутствие записи — no-op.
func (r *cartRepositoryInMemory) Delete(sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, sessionID)
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
