package shipping

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// fallbackProvider оборачивает живого провайдера локальной заменой:
// ошибка основного провайдера превращается в детерминированный локальный
// результат, а не в ошибку для вызывающего кода.
type fallbackProvider struct {
	primary    domain.ShippingProvider
	substitute domain.ShippingProvider
	logger     *log.Entry
}

// NewFallback собирает провайдера с мягкой деградацией.
func NewFallback(primary, substitute domain.ShippingProvider, logger *log.Entry) domain.ShippingProvider {
	if logger == nil {
		logger = log.WithField("component", "shipping-fallback")
	}
	return &fallbackProvider{primary: primary, substitute: substitute, logger: logger}
}

// SearchPlaces опрашивает основного провайдера, при ошибке — замену.
func (p *fallbackProvider) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	places, err := p.primary.SearchPlaces(ctx, query)
	if err != nil {
		p.logger.WithError(err).WithField("query", query).Warn("primary place search failed, using local directory")
		return p.substitute.SearchPlaces(ctx, query)
	}
	return places, nil
}

// SearchPickupPoints опрашивает основного провайдера, при ошибке — замену.
func (p *fallbackProvider) SearchPickupPoints(ctx context.Context, q domain.PickupPointQuery) ([]domain.PickupPoint, error) {
	points, err := p.primary.SearchPickupPoints(ctx, q)
	if err != nil {
		p.logger.WithError(err).WithField("place", q.PlaceName).Warn("primary pickup point search failed, using local directory")
		return p.substitute.SearchPickupPoints(ctx, q)
	}
	return points, nil
}
