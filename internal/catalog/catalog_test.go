package catalog_test

import (
	"testing"

	"github.com/vladislavdragonenkov/sopilka-store/internal/catalog"
)

func TestLoad_EmbeddedData(t *testing.T) {
	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("expected non-empty catalog")
	}
}

func TestCatalog_ByIDAndSlug(t *testing.T) {
	c := catalog.MustLoad()

	p, ok := c.ByID("1")
	if !ok {
		t.Fatal("expected product with id 1")
	}
	if p.Name != "Сопілка Традиційна" {
		t.Fatalf("unexpected product name: %s", p.Name)
	}

	bySlug, ok := c.BySlug(p.Slug)
	if !ok {
		t.Fatalf("expected product with slug %s", p.Slug)
	}
	if bySlug.ID != p.ID {
		t.Fatalf("slug lookup returned different product: %s", bySlug.ID)
	}
}

func TestCatalog_PriceOf(t *testing.T) {
	c := catalog.MustLoad()

	if price := c.PriceOf("1"); price != 850 {
		t.Fatalf("expected price 850, got %d", price)
	}
	// Отсутствующий товар даёт нулевую цену, а не ошибку.
	if price := c.PriceOf("no-such-product"); price != 0 {
		t.Fatalf("expected 0 for unknown product, got %d", price)
	}
}

func TestCatalog_ColorOf(t *testing.T) {
	c := catalog.MustLoad()

	color, ok := c.ColorOf("1", "natural")
	if !ok {
		t.Fatal("expected color natural for product 1")
	}
	if color.Name != "Натуральний" {
		t.Fatalf("unexpected color name: %s", color.Name)
	}

	if _, ok := c.ColorOf("1", "no-such-color"); ok {
		t.Fatal("expected missing color lookup to fail")
	}
	if _, ok := c.ColorOf("no-such-product", "natural"); ok {
		t.Fatal("expected missing product lookup to fail")
	}
}

func TestCatalog_DefaultColorExists(t *testing.T) {
	c := catalog.MustLoad()

	for _, p := range c.List() {
		if _, ok := c.ColorOf(p.ID, p.DefaultColorID); !ok {
			t.Fatalf("product %s: default color %s is not in its color list", p.ID, p.DefaultColorID)
		}
	}
}
