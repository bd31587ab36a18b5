package domain

import "time"

// CatalogProduct is a single product in a retailer's catalog.
// Empty Size and LinkSuffix mean the upstream record had no value.
type CatalogProduct struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Size       string  `json:"size,omitempty"`
	LinkSuffix string  `json:"linkSuffix,omitempty"`
}

// Retailer is a supermarket chain and its catalog. Code is unique within a snapshot.
type Retailer struct {
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Icon     string           `json:"icon,omitempty"`
	LinkBase string           `json:"linkBase,omitempty"`
	Products []CatalogProduct `json:"products"`
}

// Summary returns the public listing view of the retailer
func (r Retailer) Summary() RetailerSummary {
	return RetailerSummary{Code: r.Code, Name: r.Name, Icon: optionalString(r.Icon)}
}

// RetailerSummary is the code, display name and icon of a retailer
type RetailerSummary struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

// CatalogSnapshot is an immutable catalog download
type CatalogSnapshot struct {
	Retailers    []Retailer `json:"retailers"`
	FetchedAt    time.Time  `json:"fetchedAt"`
	LastModified string     `json:"lastModified,omitempty"`
}

// SnapshotMeta describes a cached snapshot without its catalog data
type SnapshotMeta struct {
	FetchedAt    time.Time
	ExpiresAt    time.Time
	LastModified string
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
