// Пакет notify доставляет уведомления менеджеру магазина.
// Telegram-нотификатор реализует domain.OutboxPublisher и подключается
// к outbox worker как получатель событий order.created.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// deliveryMethodTitles переводит код доставки в текст для менеджера.
var deliveryMethodTitles = map[string]string{
	"nova_poshta": "Нова Пошта",
	"ukr_poshta":  "Укрпошта",
	"pickup":      "Самовивіз",
}

// paymentMethodTitles переводит код оплаты в текст для менеджера.
var paymentMethodTitles = map[string]string{
	"card":             "Оплата на картку",
	"cash_on_delivery": "Накладений платіж",
}

// TelegramNotifier отправляет сообщение о новом заказе в чат менеджера
// через Bot API.
type TelegramNotifier struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// TelegramOption настраивает нотификатор.
type TelegramOption func(*TelegramNotifier)

// WithTelegramBaseURL подменяет адрес Bot API (для тестов).
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(n *TelegramNotifier) {
		if baseURL != "" {
			n.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithTelegramHTTPClient подменяет HTTP-клиент.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(n *TelegramNotifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// NewTelegramNotifier создаёт нотификатор менеджера.
func NewTelegramNotifier(botToken, chatID string, logger *log.Entry, opts ...TelegramOption) *TelegramNotifier {
	if logger == nil {
		logger = log.WithField("component", "telegram-notifier")
	}
	n := &TelegramNotifier{
		botToken:   botToken,
		chatID:     chatID,
		baseURL:    defaultTelegramBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Publish отправляет событие менеджеру. События кроме order.created
// пропускаются без ошибки: нотификатор подписан только на новые заказы.
// Отправка с тем же текстом повторима, поэтому публикация идемпотентна
// с точки зрения outbox worker.
func (n *TelegramNotifier) Publish(event domain.OutboxMessage) error {
	if event.EventType != domain.EventOrderCreated {
		return nil
	}
	if n.botToken == "" || n.chatID == "" {
		n.logger.Warn("telegram credentials are not configured, skipping notification")
		return nil
	}

	var order domain.Order
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return fmt.Errorf("decode order payload: %w", err)
	}

	return n.sendMessage(FormatOrderMessage(order))
}

func (n *TelegramNotifier) sendMessage(text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	resp, err := n.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatOrderMessage собирает текст уведомления о новом заказе.
func FormatOrderMessage(order domain.Order) string {
	delivery := deliveryMethodTitles[order.DeliveryMethod]
	if delivery == "" {
		delivery = order.DeliveryMethod
	}
	payment := paymentMethodTitles[order.PaymentMethod]
	if payment == "" {
		payment = order.PaymentMethod
	}

	var items strings.Builder
	for i, item := range order.Items {
		if i > 0 {
			items.WriteString("\n")
		}
		fmt.Fprintf(&items, "  • %s (%s) × %d = %d ₴",
			item.ProductName, item.ColorName, item.Quantity, item.Price*int64(item.Quantity))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎵 *НОВЕ ЗАМОВЛЕННЯ* #%s\n\n", order.Number)
	fmt.Fprintf(&b, "👤 *Клієнт:*\n%s %s\n📧 %s\n📱 %s\n\n", order.FirstName, order.LastName, order.Email, order.Phone)
	fmt.Fprintf(&b, "📦 *Доставка:*\n%s\n%s, %s\n\n", delivery, order.City, order.Address)
	fmt.Fprintf(&b, "💳 *Оплата:*\n%s\n\n", payment)
	fmt.Fprintf(&b, "🛒 *Товари:*\n%s\n\n", items.String())
	fmt.Fprintf(&b, "💰 *Сума:* %d ₴\n", order.Total)
	if order.Comment != "" {
		fmt.Fprintf(&b, "\n📝 *Коментар:* %s\n", order.Comment)
	}
	fmt.Fprintf(&b, "\n⏰ %s", order.CreatedAt.Format("02.01.2006 15:04"))
	return b.String()
}

var _ domain.OutboxPublisher = (*TelegramNotifier)(nil)
