package game

import "math/rand/v2"

// HazardKind defines different types of hazards
type HazardKind int

const (
	HazardButter HazardKind = iota // Small and light, the common case
	HazardSlab                     // Large and heavy, rarer
)

// HazardKindConfig holds configuration for each hazard kind
type HazardKindConfig struct {
	Kind   HazardKind
	Name   string
	Size   float64 // Edge length of the square body
	Mass   float64
	Health float64
	Weight float64 // Relative spawn frequency
}

var hazardKinds = []HazardKindConfig{
	{Kind: HazardButter, Name: "butter", Size: 5, Mass: 1, Health: 100, Weight: 0.8},
	{Kind: HazardSlab, Name: "slab", Size: 9, Mass: 4, Health: 100, Weight: 0.2},
}

// HazardKinds returns every kind in declaration order
func HazardKinds() []HazardKind {
	kinds := make([]HazardKind, len(hazardKinds))
	for i, c := range hazardKinds {
		kinds[i] = c.Kind
	}
	return kinds
}

// GetHazardKindConfig returns configuration for a hazard kind
func GetHazardKindConfig(kind HazardKind) HazardKindConfig {
	for _, c := range hazardKinds {
		if c.Kind == kind {
			return c
		}
	}
	return hazardKinds[0]
}

func (k HazardKind) String() string {
	return GetHazardKindConfig(k).Name
}

// PickHazardKind draws a kind according to the spawn weights
func PickHazardKind(rng *rand.Rand) HazardKind {
	total := 0.0
	for _, c := range hazardKinds {
		total += c.Weight
	}
	r := rng.Float64() * total
	for _, c := range hazardKinds {
		if r < c.Weight {
			return c.Kind
		}
		r -= c.Weight
	}
	return hazardKinds[len(hazardKinds)-1].Kind
}

// maxHazardSize is the largest edge of any kind
func maxHazardSize() float64 {
	size := 0.0
	for _, c := range hazardKinds {
		size = max(size, c.Size)
	}
	return size
}
