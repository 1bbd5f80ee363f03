package httpapi

import (
	"net/http"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

const (
	carrierNovaPoshta = "nova_poshta"
	carrierUkrPoshta  = "ukr_poshta"
)

func (h *Handler) novaPoshtaCities(w http.ResponseWriter, r *http.Request) {
	h.searchPlaces(w, r, h.novaPoshta, carrierNovaPoshta, "cities")
}

func (h *Handler) ukrPoshtaCities(w http.ResponseWriter, r *http.Request) {
	h.searchPlaces(w, r, h.ukrPoshta, carrierUkrPoshta, "cities")
}

func (h *Handler) searchPlaces(w http.ResponseWriter, r *http.Request, provider domain.ShippingProvider, carrier, payloadKey string) {
	query := r.URL.Query().Get("q")

	places, err := provider.SearchPlaces(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).WithField("carrier", carrier).Warn("place search failed")
		h.respondError(w, http.StatusBadGateway, "carrier_unavailable", "carrier lookup failed")
		return
	}
	if places == nil {
		places = []domain.Place{}
	}

	h.recordShippingLookup(carrier, "places")
	respondJSON(w, http.StatusOK, map[string][]domain.Place{payloadKey: places}, h.logger)
}

// novaPoshtaWarehouses отдаёт отделения Нової Пошти выбранного населённого
// пункта: cityRef/cityName задают пункт, q фильтрует список.
func (h *Handler) novaPoshtaWarehouses(w http.ResponseWriter, r *http.Request) {
	q := domain.PickupPointQuery{
		PlaceRef:  r.URL.Query().Get("cityRef"),
		PlaceName: r.URL.Query().Get("cityName"),
		Filter:    r.URL.Query().Get("q"),
	}
	h.searchPickupPoints(w, r, h.novaPoshta, carrierNovaPoshta, "warehouses", q)
}

// ukrPoshtaOffices отдаёт отделения Укрпошти; cityId — это почтовый индекс
// населённого пункта из ответа /cities.
func (h *Handler) ukrPoshtaOffices(w http.ResponseWriter, r *http.Request) {
	q := domain.PickupPointQuery{
		PlaceRef:  r.URL.Query().Get("cityId"),
		PlaceName: r.URL.Query().Get("cityName"),
		Filter:    r.URL.Query().Get("q"),
	}
	h.searchPickupPoints(w, r, h.ukrPoshta, carrierUkrPoshta, "offices", q)
}

func (h *Handler) searchPickupPoints(w http.ResponseWriter, r *http.Request, provider domain.ShippingProvider, carrier, payloadKey string, q domain.PickupPointQuery) {
	points, err := provider.SearchPickupPoints(r.Context(), q)
	if err != nil {
		h.logger.WithError(err).WithField("carrier", carrier).Warn("pickup point search failed")
		h.respondError(w, http.StatusBadGateway, "carrier_unavailable", "carrier lookup failed")
		return
	}
	if points == nil {
		points = []domain.PickupPoint{}
	}

	h.recordShippingLookup(carrier, "pickup_points")
	respondJSON(w, http.StatusOK, map[string][]domain.PickupPoint{payloadKey: points}, h.logger)
}
