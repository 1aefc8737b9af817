package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	StatusActive = "active"
	DefaultBrand = "AVenS"
	// FallbackCategory files products whose category is unknown.
	FallbackCategory = "Genel"
)

// Product is a row of the products table.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Price         float64 `json:"price"`
	SKU           string  `json:"sku"`
	CategoryID    *string `json:"category_id"`
	SubcategoryID *string `json:"subcategory_id"`
	Status        string  `json:"status"`
	Description   string  `json:"description"`
	StockQty      int     `json:"stock_qty"`
}

// NewProduct is the insert payload for a product row.
type NewProduct struct {
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	CategoryID    string  `json:"category_id"`
	SubcategoryID *string `json:"subcategory_id,omitempty"`
	Price         float64 `json:"price"`
	SKU           string  `json:"sku"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	StockQty      int     `json:"stock_qty"`
}

// ScrapedProduct is one record of a scraped product file.
type ScrapedProduct struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Price       string `json:"price,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ScrapedAt   string `json:"scraped_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// LoadScrapedFile reads a JSON array of scraped products.
func LoadScrapedFile(path string) ([]ScrapedProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scraped file: %w", err)
	}
	var products []ScrapedProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse scraped file %s: %w", path, err)
	}
	return products, nil
}

// SaveScrapedFile writes products as an indented JSON array, creating the
// parent directory if needed.
func SaveScrapedFile(path string, products []ScrapedProduct) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scraped products: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// IsImportable filters out scraping noise such as contact e-mails picked up
// as product names.
func IsImportable(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.Contains(name, "@")
}

// ParsePrice parses a Turkish-formatted price like "1.234,56 TL". Strings
// without a lira marker, and anything unparsable, yield 0.
func ParsePrice(s string) float64 {
	if !strings.Contains(s, "TL") && !strings.Contains(s, "₺") {
		return 0
	}
	clean := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, s)
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" {
		return 0
	}
	price, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return price
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
