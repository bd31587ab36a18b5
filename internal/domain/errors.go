package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoMatchingRetailers is returned when none of the requested retailer codes
	// is present in the price table
	ErrNoMatchingRetailers = errors.New("no matching supermarkets found from selected supermarket codes")

	// ErrCacheMiss is returned when data is not found in cache or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogUnavailable is returned when the retailer catalog cannot be downloaded
	ErrCatalogUnavailable = errors.New("retailer catalog unavailable")

	// ErrUnsupportedList is returned when a shopping list file has an unknown format
	ErrUnsupportedList = errors.New("unsupported shopping list format")
)
