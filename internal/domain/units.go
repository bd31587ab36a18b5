package domain

import "strconv"

// BaseUnit is the canonical unit every quantity is normalized to
type BaseUnit int

const (
	UnitGram BaseUnit = iota + 1
	UnitMilliliter
)

// UnitFamily groups base units that can be compared with each other
type UnitFamily int

const (
	FamilyMass UnitFamily = iota + 1
	FamilyVolume
)

func (u BaseUnit) String() string {
	switch u {
	case UnitGram:
		return "gram"
	case UnitMilliliter:
		return "milliliter"
	default:
		return "unknown"
	}
}

// Family returns mass for gram and volume for milliliter
func (u BaseUnit) Family() UnitFamily {
	if u == UnitMilliliter {
		return FamilyVolume
	}
	return FamilyMass
}

// Quantity is a value expressed in a base unit
type Quantity struct {
	Value float64  `json:"value"`
	Unit  BaseUnit `json:"unit"`
}

// String renders the quantity as "<value> <unit>", e.g. "1500 milliliter"
func (q Quantity) String() string {
	return strconv.FormatFloat(q.Value, 'f', -1, 64) + " " + q.Unit.String()
}
