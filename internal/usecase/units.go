package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/basketlens/backend/internal/domain"
)

// UnitEntry maps a recognized unit name to its base unit and conversion factor
type UnitEntry struct {
	Name   string
	Unit   domain.BaseUnit
	Factor float64
}

// DefaultUnits returns the recognized unit vocabulary. Order matters: the first
// name that matches at a position wins, so longer names precede their prefixes.
func DefaultUnits() []UnitEntry {
	return []UnitEntry{
		{Name: "gram", Unit: domain.UnitGram, Factor: 1},
		{Name: "gr", Unit: domain.UnitGram, Factor: 1},
		{Name: "g", Unit: domain.UnitGram, Factor: 1},
		{Name: "kilogram", Unit: domain.UnitGram, Factor: 1000},
		{Name: "kilo", Unit: domain.UnitGram, Factor: 1000},
		{Name: "kg", Unit: domain.UnitGram, Factor: 1000},
		{Name: "k", Unit: domain.UnitGram, Factor: 1000},
		{Name: "pond", Unit: domain.UnitGram, Factor: 500},
		{Name: "milliliter", Unit: domain.UnitMilliliter, Factor: 1},
		{Name: "mililiter", Unit: domain.UnitMilliliter, Factor: 1},
		{Name: "ml", Unit: domain.UnitMilliliter, Factor: 1},
		{Name: "liter", Unit: domain.UnitMilliliter, Factor: 1000},
		{Name: "l", Unit: domain.UnitMilliliter, Factor: 1000},
		{Name: "deciliter", Unit: domain.UnitMilliliter, Factor: 100},
		{Name: "dl", Unit: domain.UnitMilliliter, Factor: 100},
		{Name: "centiliter", Unit: domain.UnitMilliliter, Factor: 10},
		{Name: "cl", Unit: domain.UnitMilliliter, Factor: 10},
	}
}

var (
	leadingDigitsRegex = regexp.MustCompile(`[0-9]+`)
	leadingAlphaRegex  = regexp.MustCompile(`(?i)[a-z]+`)
	leadingDecimal     = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
)

// UnitNormalizer extracts quantity expressions from text and converts them to base units.
// It is immutable after construction and safe for concurrent use.
type UnitNormalizer struct {
	units   []UnitEntry
	pattern *regexp.Regexp
}

// NewUnitNormalizer compiles the amount pattern for the given unit table
func NewUnitNormalizer(units []UnitEntry) *UnitNormalizer {
	table := make([]UnitEntry, len(units))
	copy(table, units)

	names := make([]string, len(table))
	for i, u := range table {
		names[i] = regexp.QuoteMeta(u.Name)
	}

	return &UnitNormalizer{
		units:   table,
		pattern: regexp.MustCompile(`(?i)([\d.,]+)\s?(` + strings.Join(names, "|") + `)`),
	}
}

// ExtractAmountToken returns the first "<number><optional space><unit>" substring of text
func (n *UnitNormalizer) ExtractAmountToken(text string) (string, bool) {
	token := n.pattern.FindString(text)
	if token == "" {
		return "", false
	}
	return token, true
}

// ToBaseQuantity converts an amount token such as "1,5 liter" to {1500, milliliter}
func (n *UnitNormalizer) ToBaseQuantity(token string) (domain.Quantity, bool) {
	m := n.pattern.FindStringSubmatch(token)
	if m == nil {
		return domain.Quantity{}, false
	}

	unit, ok := n.lookup(m[2])
	if !ok {
		return domain.Quantity{}, false
	}

	value, ok := parseLeadingDecimal(m[1])
	if !ok {
		return domain.Quantity{}, false
	}

	return domain.Quantity{Value: value * unit.Factor, Unit: unit.Unit}, true
}

// BaseToken renders text as its base quantity ("1 kg" -> "1000 gram").
// Text that does not parse is returned unchanged.
func (n *UnitNormalizer) BaseToken(text string) string {
	q, ok := n.ToBaseQuantity(text)
	if !ok {
		return text
	}
	return q.String()
}

func (n *UnitNormalizer) lookup(name string) (UnitEntry, bool) {
	lower := strings.ToLower(name)
	for _, u := range n.units {
		if u.Name == lower {
			return u, true
		}
	}
	return UnitEntry{}, false
}

// parseLeadingDecimal parses the longest decimal prefix after turning the first
// comma into a dot, so "1,5" is 1.5 and "1.000,5" is 1
func parseLeadingDecimal(s string) (float64, bool) {
	s = strings.Replace(s, ",", ".", 1)
	prefix := leadingDecimal.FindString(s)
	if strings.Trim(prefix, ".") == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(prefix, "."), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// MeetsMinimum compares two base tokens ("500 gram", "250 gram"). The unit labels
// must be identical and the candidate's integer magnitude at least the required one.
func MeetsMinimum(candidate, required string) bool {
	candidateUnit := leadingAlphaRegex.FindString(candidate)
	requiredUnit := leadingAlphaRegex.FindString(required)
	if candidateUnit == "" || candidateUnit != requiredUnit {
		return false
	}

	candidateValue, ok := leadingInt(candidate)
	if !ok {
		return false
	}
	requiredValue, ok := leadingInt(required)
	if !ok {
		return false
	}

	return candidateValue >= requiredValue
}

func leadingInt(s string) (int64, bool) {
	digits := leadingDigitsRegex.FindString(s)
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
