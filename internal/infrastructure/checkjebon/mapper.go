package checkjebon

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/basketlens/backend/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// RetailerRecord is one supermarket in the upstream supermarkets.json
type RetailerRecord struct {
	Code     string          `json:"n"`
	Name     string          `json:"c"`
	Icon     string          `json:"i,omitempty"`
	LinkBase string          `json:"u,omitempty"`
	Products []ProductRecord `json:"d"`
}

// ProductRecord is one product in the upstream feed. Price is kept raw so a
// single malformed record does not fail the whole download.
type ProductRecord struct {
	Name  string          `json:"n"`
	Link  string          `json:"l,omitempty"`
	Price json.RawMessage `json:"p"`
	Size  string          `json:"s,omitempty"`
}

// MapSnapshot converts upstream records into a domain snapshot.
// Retailers without a code and products without a name or numeric price are dropped.
func MapSnapshot(records []RetailerRecord) *domain.CatalogSnapshot {
	retailers := make([]domain.Retailer, 0, len(records))
	for _, record := range records {
		code := strings.TrimSpace(record.Code)
		if code == "" {
			continue
		}

		name := normalize(record.Name)
		if name == "" {
			name = code
		}

		retailers = append(retailers, domain.Retailer{
			Code:     code,
			Name:     name,
			Icon:     strings.TrimSpace(record.Icon),
			LinkBase: strings.TrimSpace(record.LinkBase),
			Products: mapProducts(record.Products),
		})
	}
	return &domain.CatalogSnapshot{Retailers: retailers}
}

func mapProducts(records []ProductRecord) []domain.CatalogProduct {
	products := make([]domain.CatalogProduct, 0, len(records))
	for _, record := range records {
		name := normalize(record.Name)
		if name == "" {
			continue
		}
		price, ok := parsePrice(record.Price)
		if !ok {
			continue
		}

		products = append(products, domain.CatalogProduct{
			Name:       name,
			Price:      price,
			Size:       normalize(record.Size),
			LinkSuffix: strings.TrimSpace(record.Link),
		})
	}
	return products
}

// parsePrice accepts only JSON numbers
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var price float64
	if err := json.Unmarshal(raw, &price); err != nil {
		return 0, false
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}

// normalize trims and composes text to NFC so accented names compare equal
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
