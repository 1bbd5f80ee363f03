// Пакет catalog хранит неизменяемый каталог товаров магазина.
// Каталог собирается один раз при старте процесса из встроенного JSON
// и после этого только читается — его безопасно разделять между хендлерами.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/products.json
var productsFS embed.FS

// Color — вариант цвета товара. Принадлежит ровно одному товару,
// идентификатор уникален внутри товара. Цена общая с товаром.
type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Specs — физические характеристики инструмента.
type Specs struct {
	Material string `json:"material"`
	Length   string `json:"length"`
	Weight   string `json:"weight"`
	Tuning   string `json:"tuning"`
}

// Product — карточка товара каталога. Цена хранится целым числом гривен.
type Product struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	FullDescription string   `json:"fullDescription"`
	Price           int64    `json:"price"`
	Category        string   `json:"category"`
	Features        []string `json:"features"`
	Specs           Specs    `json:"specs"`
	Colors          []Color  `json:"colors"`
	DefaultColorID  string   `json:"defaultColorId"`
}

// Catalog — справочник товаров с индексами по id и slug.
type Catalog struct {
	products []Product
	byID     map[string]int
	bySlug   map[string]int
}

// Load собирает каталог из встроенных данных.
func Load() (*Catalog, error) {
	raw, err := productsFS.ReadFile("data/products.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded products: %w", err)
	}
	return parse(raw)
}

// MustLoad — Load с panic при ошибке; встроенные данные обязаны быть валидными.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load product catalog: %v", err))
	}
	return c
}

func parse(raw []byte) (*Catalog, error) {
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}

	c := &Catalog{
		products: products,
		byID:     make(map[string]int, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}
	for i, p := range products {
		if p.ID == "" || p.Slug == "" {
			return nil, fmt.Errorf("product #%d: id and slug are required", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate product slug %q", p.Slug)
		}
		c.byID[p.ID] = i
		c.bySlug[p.Slug] = i
	}
	return c, nil
}

// List возвращает все товары в каталожном порядке.
func (c *Catalog) List() []Product {
	result := make([]Product, len(c.products))
	copy(result, c.products)
	return result
}

// ByID возвращает товар по идентификатору.
func (c *Catalog) ByID(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// BySlug возвращает товар по slug.
func (c *Catalog) BySlug(slug string) (Product, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// PriceOf возвращает текущую цену товара. Отсутствующий товар даёт 0:
// позиции корзины, ссылающиеся на удалённый товар, вносят нулевой вклад в сумму.
func (c *Catalog) PriceOf(id string) int64 {
	i, ok := c.byID[id]
	if !ok {
		return 0
	}
	return c.products[i].Price
}

// ColorOf возвращает вариант цвета товара.
func (c *Catalog) ColorOf(productID, colorID string) (Color, bool) {
	i, ok := c.byID[productID]
	if !ok {
		return Color{}, false
	}
	for _, color := range c.products[i].Colors {
		if color.ID == colorID {
			return color, true
		}
	}
	return Color{}, false
}

// Len возвращает размер каталога.
func (c *Catalog) Len() int {
	return len(c.products)
}
