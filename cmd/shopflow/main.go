// Команда shopflow прогоняет полный сценарий покупки против запущенной
// витрины: подсказка города с debounce, выбор отделения, корзина и
// оформление заказа. Используется для ручной проверки и демонстраций.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/suggest"
)

type config struct {
	addr    string
	carrier string
	city    string
	product string
	color   string
	qty     int
	timeout time.Duration
}

func main() {
	cfg := parseFlags()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "shopflow")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	jar, err := cookiejar.New(nil)
	if err != nil {
		fail("create cookie jar: %v", err)
	}
	client := &apiClient{
		base:    cfg.addr,
		carrier: cfg.carrier,
		http:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}

	place, err := suggestCity(ctx, client, cfg.city, logger)
	if err != nil {
		fail("suggest city: %v", err)
	}
	fmt.Printf("місто: %s (%s)\n", place.Name, place.Ref)

	points, err := client.SearchPickupPoints(ctx, domain.PickupPointQuery{
		PlaceRef:  place.Ref,
		PlaceName: place.Name,
	})
	if err != nil {
		fail("search pickup points: %v", err)
	}
	if len(points) == 0 {
		fail("no pickup points for %s", place.Name)
	}
	point := points[0]
	fmt.Printf("відділення: %s\n", pickupPointLabel(point))

	for i := 0; i < cfg.qty; i++ {
		if err := client.addToCart(ctx, cfg.product, cfg.color); err != nil {
			fail("add to cart: %v", err)
		}
	}

	result, err := client.submitOrder(ctx, place.Name, pickupPointLabel(point), cfg.carrier)
	if err != nil {
		fail("submit order: %v", err)
	}
	fmt.Printf("%s: %s\n", result.Message, result.OrderNumber)
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.addr, "addr", "http://localhost:8080", "storefront base URL")
	flag.StringVar(&cfg.carrier, "carrier", "nova_poshta", "delivery carrier: nova_poshta|ukr_poshta")
	flag.StringVar(&cfg.city, "city", "Київ", "city name to type into the suggest box")
	flag.StringVar(&cfg.product, "product", "1", "product id to order")
	flag.StringVar(&cfg.color, "color", "", "color id (empty = product default)")
	flag.IntVar(&cfg.qty, "qty", 1, "quantity to add to the cart")
	flag.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "overall scenario timeout")
	flag.Parse()

	if cfg.carrier != "nova_poshta" && cfg.carrier != "ukr_poshta" {
		fail("unsupported carrier: %s", cfg.carrier)
	}
	if cfg.qty <= 0 {
		cfg.qty = 1
	}
	return cfg
}

// suggestCity печатает город по буквам через suggest-машину, как это делает
// пользователь в поле автодополнения, и выбирает первый результат.
func suggestCity(ctx context.Context, provider domain.ShippingProvider, city string, logger *log.Entry) (domain.Place, error) {
	results := make(chan []domain.Place, 8)
	machine := suggest.NewMachine(provider, logger,
		suggest.WithDebounce(150*time.Millisecond),
		suggest.WithResultListener(func(_ string, places []domain.Place) {
			results <- places
		}),
	)

	runes := []rune(city)
	for i := 1; i <= len(runes); i++ {
		machine.Input(ctx, string(runes[:i]))
		time.Sleep(50 * time.Millisecond)
	}

	// Debounce пропускает промежуточные вводы: ждём результат финального.
	for {
		select {
		case places := <-results:
			if len(places) == 0 {
				continue
			}
			if place, ok := machine.Select(places[0].Ref); ok {
				return place, nil
			}
		case <-ctx.Done():
			return domain.Place{}, ctx.Err()
		}
	}
}

func pickupPointLabel(point domain.PickupPoint) string {
	if point.Address != "" && point.Address != point.Name {
		return fmt.Sprintf("%s, %s", point.Name, point.Address)
	}
	return point.Name
}

// apiClient реализует domain.ShippingProvider поверх HTTP API витрины и
// выполняет шаги сценария с общей cookie-сессией.
type apiClient struct {
	base    string
	carrier string
	http    *http.Client
}

func (c *apiClient) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	path := "/api/nova-poshta/cities"
	if c.carrier == "ukr_poshta" {
		path = "/api/ukr-poshta/cities"
	}

	var payload map[string][]domain.Place
	if err := c.getJSON(ctx, path+"?q="+url.QueryEscape(query), &payload); err != nil {
		return nil, err
	}
	return payload["cities"], nil
}

func (c *apiClient) SearchPickupPoints(ctx context.Context, q domain.PickupPointQuery) ([]domain.PickupPoint, error) {
	var path string
	params := url.Values{}
	if c.carrier == "ukr_poshta" {
		path = "/api/ukr-poshta/offices"
		params.Set("cityId", q.PlaceRef)
	} else {
		path = "/api/nova-poshta/warehouses"
		params.Set("cityRef", q.PlaceRef)
	}
	params.Set("cityName", q.PlaceName)
	if q.Filter != "" {
		params.Set("q", q.Filter)
	}

	var payload map[string][]domain.PickupPoint
	if err := c.getJSON(ctx, path+"?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	if c.carrier == "ukr_poshta" {
		return payload["offices"], nil
	}
	return payload["warehouses"], nil
}

func (c *apiClient) addToCart(ctx context.Context, productID, colorID string) error {
	return c.postJSON(ctx, "/api/cart/items", map[string]string{
		"productId": productID,
		"colorId":   colorID,
	}, nil, nil)
}

func (c *apiClient) submitOrder(ctx context.Context, city, address, carrier string) (result struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber"`
	Message     string `json:"message"`
}, err error) {
	form := map[string]string{
		"firstName":      "Тест",
		"lastName":       "Покупець",
		"email":          "shopflow@example.com",
		"phone":          "+380501112233",
		"city":           city,
		"address":        address,
		"deliveryMethod": carrier,
		"paymentMethod":  "cash_on_delivery",
		"comment":        "shopflow scenario",
	}
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	err = c.postJSON(ctx, "/api/orders", form, headers, &result)
	return result, err
}

func (c *apiClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *apiClient) postJSON(ctx context.Context, path string, body interface{}, headers map[string]string, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	return c.doJSON(req, out)
}

func (c *apiClient) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error   string            `json:"error"`
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		switch {
		case len(apiErr.Errors) > 0:
			return fmt.Errorf("%s: validation errors %v", resp.Status, apiErr.Errors)
		case apiErr.Message != "":
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		case apiErr.Error != "":
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		default:
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
