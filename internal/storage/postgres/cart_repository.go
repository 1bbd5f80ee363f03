package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
// Позиции хранятся одним JSONB-документом на сессию: корзина всегда
// читается и перезаписывается целиком.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Load(sessionID string) ([]domain.CartLine, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT lines FROM carts WHERE session_id = $1
	`, sessionID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		// Битый документ трактуется как отсутствие корзины.
		return nil, domain.ErrCartNotFound
	}
	return domain.ValidLines(lines), nil
}

func (r *cartRepository) Save(sessionID string, lines []domain.CartLine) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}

	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart lines: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (session_id, lines, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET lines = EXCLUDED.lines,
		    updated_at = EXCLUDED.updated_at
	`, sessionID, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Delete(sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
