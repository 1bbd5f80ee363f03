// Пакет cart владеет состоянием корзин активных сессий.
// Авторитетное состояние живёт в памяти сервиса; репозиторий — это
// best-effort зеркало для переживания рестартов: ошибки персистентности
// логируются и никогда не блокируют мутации корзины.
package cart

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/catalog"
	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// defaultIdleTTL — срок, после которого неактивная сессия выгружается
// из памяти. Позиции переживают выгрузку в репозитории.
const defaultIdleTTL = time.Hour

// Service реализует операции корзины и производные представления
// (сумма, количество) поверх каталога.
type Service struct {
	repo    domain.CartRepository
	catalog *catalog.Catalog
	logger  *log.Entry
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// session хранит загруженное состояние одной сессии.
// Флаг открытости сайдбара — презентационный и не персистится.
type session struct {
	lines    []domain.CartLine
	isOpen   bool
	lastSeen time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithIdleTTL задаёт срок неактивности, после которого сессия
// выгружается из памяти.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт сервис корзины.
func NewService(repo domain.CartRepository, cat *catalog.Catalog, logger *log.Entry, options ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "cart-service")
	}
	svc := &Service{
		repo:     repo,
		catalog:  cat,
		logger:   logger,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// State возвращает снимок корзины сессии.
func (s *Service) State(sessionID string) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	return snapshot(sess)
}

// AddItem увеличивает количество позиции (productID, colorID) на 1 или
// добавляет новую позицию с количеством 1. Неизвестные идентификаторы
// принимаются структурно: сверка с каталогом происходит при чтении.
func (s *Service) AddItem(sessionID, productID, colorID string) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	sess.lines = domain.AddLine(sess.lines, productID, colorID)
	s.persist(sessionID, sess)
	return snapshot(sess)
}

// RemoveItem удаляет позицию; отсутствие позиции — no-op.
func (s *Service) RemoveItem(sessionID, productID, colorID string) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	sess.lines = domain.RemoveLine(sess.lines, productID, colorID)
	s.persist(sessionID, sess)
	return snapshot(sess)
}

// UpdateQuantity заменяет количество позиции; значение <= 0 удаляет позицию.
func (s *Service) UpdateQuantity(sessionID, productID, colorID string, quantity int) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	sess.lines = domain.SetLineQuantity(sess.lines, productID, colorID, quantity)
	s.persist(sessionID, sess)
	return snapshot(sess)
}

// Clear опустошает корзину сессии и выгружает её из памяти:
// пустое состояние восстановится load-through'ом при следующем обращении.
func (s *Service) Clear(sessionID string) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	sess.lines = nil
	if err := s.repo.Delete(sessionID); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to delete persisted cart")
	}
	state := snapshot(sess)
	delete(s.sessions, sessionID)
	return state
}

// Open выставляет флаг видимости корзины. Не трогает позиции.
func (s *Service) Open(sessionID string) domain.CartState {
	return s.setOpen(sessionID, func(open bool) bool { return true })
}

// Close сбрасывает флаг видимости корзины. Не трогает позиции.
func (s *Service) Close(sessionID string) domain.CartState {
	return s.setOpen(sessionID, func(open bool) bool { return false })
}

// Toggle переключает флаг видимости корзины. Не трогает позиции.
func (s *Service) Toggle(sessionID string) domain.CartState {
	return s.setOpen(sessionID, func(open bool) bool { return !open })
}

func (s *Service) setOpen(sessionID string, f func(bool) bool) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	sess.isOpen = f(sess.isOpen)
	return snapshot(sess)
}

// Total возвращает сумму корзины по текущим ценам каталога.
// Позиции, ссылающиеся на отсутствующий товар, вносят ноль: сумма —
// производное значение и не должна падать из-за устаревшей ссылки.
func (s *Service) Total(sessionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, line := range s.session(sessionID).lines {
		total += s.catalog.PriceOf(line.ProductID) * int64(line.Quantity)
	}
	return total
}

// Count возвращает суммарное количество единиц товара в корзине.
func (s *Service) Count(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, line := range s.session(sessionID).lines {
		count += line.Quantity
	}
	return count
}

// ActiveSessions возвращает число загруженных сессий с непустой корзиной.
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, sess := range s.sessions {
		if len(sess.lines) > 0 {
			count++
		}
	}
	return count
}

// Lines возвращает копию позиций сессии (для оформления заказа).
func (s *Service) Lines(sessionID string) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	lines := make([]domain.CartLine, len(sess.lines))
	copy(lines, sess.lines)
	return lines
}

// session возвращает состояние сессии, при первом обращении восстанавливая
// его из репозитория. Битые или недоступные данные не фатальны: сессия
// стартует с пустой корзиной.
func (s *Service) session(sessionID string) *session {
	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastSeen = s.now()
		return sess
	}

	s.evictIdle()

	sess := &session{lastSeen: s.now()}
	lines, err := s.repo.Load(sessionID)
	switch {
	case err == nil:
		sess.lines = domain.ValidLines(lines)
	case errors.Is(err, domain.ErrCartNotFound):
		// Новая сессия.
	default:
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to load persisted cart, starting empty")
	}

	s.sessions[sessionID] = sess
	return sess
}

// evictIdle выгружает сессии, к которым не обращались дольше idleTTL.
// Позиции остаются в репозитории и восстановятся load-through'ом,
// теряется только флаг открытости сайдбара. Вызывается под s.mu.
func (s *Service) evictIdle() {
	cutoff := s.now().Add(-s.idleTTL)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// persist зеркалирует позиции в репозиторий после мутации.
func (s *Service) persist(sessionID string, sess *session) {
	if err := s.repo.Save(sessionID, sess.lines); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to persist cart")
	}
}

func snapshot(sess *session) domain.CartState {
	lines := make([]domain.CartLine, len(sess.lines))
	copy(lines, sess.lines)
	return domain.CartState{Lines: lines, IsOpen: sess.isOpen}
}
