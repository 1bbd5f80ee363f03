package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

const (
	defaultNovaPoshtaBaseURL = "https://api.novaposhta.ua/v2.0/json/"

	novaPoshtaModelAddress           = "Address"
	novaPoshtaMethodSearchSettlement = "searchSettlements"
	novaPoshtaMethodGetWarehouses    = "getWarehouses"

	novaPoshtaPlaceLimit       = 15
	novaPoshtaPickupPointLimit = 50
)

// NovaPoshtaClient — клиент JSON API Нової Пошти. Возвращает ошибки как есть;
// мягкую деградацию обеспечивает обёртка NewFallback.
type NovaPoshtaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NovaPoshtaOption настраивает клиента.
type NovaPoshtaOption func(*NovaPoshtaClient)

// WithBaseURL подменяет адрес API (для тестов).
func WithBaseURL(baseURL string) NovaPoshtaOption {
	return func(c *NovaPoshtaClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(client *http.Client) NovaPoshtaOption {
	return func(c *NovaPoshtaClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewNovaPoshtaClient создаёт клиента живого API.
func NewNovaPoshtaClient(apiKey string, logger *log.Entry, opts ...NovaPoshtaOption) *NovaPoshtaClient {
	if logger == nil {
		logger = log.WithField("component", "nova-poshta-client")
	}
	c := &NovaPoshtaClient{
		apiKey:     apiKey,
		baseURL:    defaultNovaPoshtaBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewNovaPoshtaProvider собирает провайдера Нової Пошти: без API-ключа —
// только локальный справочник, с ключом — живой клиент с деградацией на
// справочник.
func NewNovaPoshtaProvider(apiKey string, logger *log.Entry, opts ...NovaPoshtaOption) domain.ShippingProvider {
	directory := NewNovaPoshtaDirectory()
	if apiKey == "" {
		return directory
	}
	return NewFallback(NewNovaPoshtaClient(apiKey, logger, opts...), directory, logger)
}

// novaPoshtaRequest — конверт запроса JSON API.
type novaPoshtaRequest struct {
	APIKey           string `json:"apiKey"`
	ModelName        string `json:"modelName"`
	CalledMethod     string `json:"calledMethod"`
	MethodProperties any    `json:"methodProperties"`
}

type searchSettlementsProperties struct {
	CityName string `json:"CityName"`
	Limit    int    `json:"Limit"`
	Page     int    `json:"Page"`
}

type getWarehousesProperties struct {
	CityRef      string `json:"CityRef,omitempty"`
	CityName     string `json:"CityName,omitempty"`
	FindByString string `json:"FindByString,omitempty"`
	Limit        int    `json:"Limit"`
	Page         int    `json:"Page"`
}

type searchSettlementsResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Addresses []struct {
			DeliveryCity    string `json:"DeliveryCity"`
			Present         string `json:"Present"`
			MainDescription string `json:"MainDescription"`
			Area            string `json:"Area"`
			Region          string `json:"Region"`
			Warehouses      int    `json:"Warehouses"`
		} `json:"Addresses"`
	} `json:"data"`
}

type getWarehousesResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Ref             string `json:"Ref"`
		Description     string `json:"Description"`
		ShortAddress    string `json:"ShortAddress"`
		Number          string `json:"Number"`
		TypeOfWarehouse string `json:"TypeOfWarehouse"`
	} `json:"data"`
}

// SearchPlaces ищет населённые пункты методом searchSettlements.
func (c *NovaPoshtaClient) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength {
		return []domain.Place{}, nil
	}

	req := novaPoshtaRequest{
		APIKey:       c.apiKey,
		ModelName:    novaPoshtaModelAddress,
		CalledMethod: novaPoshtaMethodSearchSettlement,
		MethodProperties: searchSettlementsProperties{
			CityName: query,
			Limit:    novaPoshtaPlaceLimit,
			Page:     1,
		},
	}

	var resp searchSettlementsResponse
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, fmt.Errorf("nova poshta settlement search rejected for %q", query)
	}

	addresses := resp.Data[0].Addresses
	places := make([]domain.Place, 0, len(addresses))
	for _, addr := range addresses {
		name := addr.MainDescription
		if name == "" {
			name = addr.Present
		}
		places = append(places, domain.Place{
			Ref:            addr.DeliveryCity,
			Name:           name,
			Area:           addr.Area,
			Region:         addr.Region,
			WarehouseCount: addr.Warehouses,
		})
	}
	return places, nil
}

// SearchPickupPoints ищет отделения методом getWarehouses.
func (c *NovaPoshtaClient) SearchPickupPoints(ctx context.Context, q domain.PickupPointQuery) ([]domain.PickupPoint, error) {
	if q.PlaceRef == "" && q.PlaceName == "" {
		return []domain.PickupPoint{}, nil
	}

	props := getWarehousesProperties{
		CityRef:      q.PlaceRef,
		FindByString: q.Filter,
		Limit:        novaPoshtaPickupPointLimit,
		Page:         1,
	}
	if props.CityRef == "" {
		props.CityName = q.PlaceName
	}
	req := novaPoshtaRequest{
		APIKey:           c.apiKey,
		ModelName:        novaPoshtaModelAddress,
		CalledMethod:     novaPoshtaMethodGetWarehouses,
		MethodProperties: props,
	}

	var resp getWarehousesResponse
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("nova poshta warehouse search rejected for %q", q.PlaceName)
	}

	points := make([]domain.PickupPoint, 0, len(resp.Data))
	for _, wh := range resp.Data {
		points = append(points, domain.PickupPoint{
			Ref:     wh.Ref,
			Name:    wh.Description,
			Address: wh.ShortAddress,
			Number:  wh.Number,
			Kind:    domain.PickupPointKind(wh.TypeOfWarehouse),
		})
	}
	return points, nil
}

// call выполняет POST-запрос к JSON API и декодирует ответ.
func (c *NovaPoshtaClient) call(ctx context.Context, reqBody novaPoshtaRequest, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal nova poshta request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build nova poshta request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call nova poshta api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nova poshta api returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode nova poshta response: %w", err)
	}
	return nil
}

var _ domain.ShippingProvider = (*NovaPoshtaClient)(nil)
