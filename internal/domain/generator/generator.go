// Package generator produces random auction lots and appraises their resale value.
package generator

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Source is the randomness the generator draws from. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Resolution tells whether a name was found in its table or replaced by the fallback entry
type Resolution string

const (
	ResolutionFound     Resolution = "found"
	ResolutionDefaulted Resolution = "defaulted"
)

func resolution(found bool) Resolution {
	if found {
		return ResolutionFound
	}
	return ResolutionDefaulted
}

// Candidate is a freshly generated item payload
type Candidate struct {
	Name          string `json:"name"`
	StartingPrice int64  `json:"starting_price"`
}

// Appraisal is a resale valuation together with how the name was resolved
type Appraisal struct {
	Value            int64
	Prefix           Prefix
	Type             ItemType
	PrefixResolution Resolution
	TypeResolution   Resolution
	Fluctuation      float64
}

// Defaulted reports whether either table lookup fell back to its first entry
func (a Appraisal) Defaulted() bool {
	return a.PrefixResolution == ResolutionDefaulted || a.TypeResolution == ResolutionDefaulted
}

// Generator is safe for concurrent use
type Generator struct {
	mu  sync.Mutex
	src Source
}

// New wraps src. Callers that share src elsewhere must not use it concurrently.
func New(src Source) *Generator {
	return &Generator{src: src}
}

// NewSeeded builds a generator over math/rand. A zero seed uses the current time.
func NewSeeded(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(rand.New(rand.NewSource(seed)))
}

// GenerateRandomItem draws a type, then a prefix, then a price variance in [0.9, 1.1]
func (g *Generator) GenerateRandomItem() Candidate {
	g.mu.Lock()
	itemType := ItemTypes[g.src.Intn(len(ItemTypes))]
	prefix := Prefixes[g.src.Intn(len(Prefixes))]
	variance := 0.9 + g.src.Float64()*0.2
	g.mu.Unlock()

	price := int64(math.Floor(itemType.BasePrice * prefix.PriceMult * variance))
	if price < 1 {
		price = 1
	}

	return Candidate{
		Name:          prefix.Name + " " + itemType.Name,
		StartingPrice: price,
	}
}

// CalculateSellValue returns the resale value of a concluded item
func (g *Generator) CalculateSellValue(name string, price int64) int64 {
	return g.Appraise(name, price).Value
}

// Appraise computes price × sellFactor × sellMult × fluctuation, fluctuation in [0.8, 1.5].
// Unknown names resolve to the first table entry.
func (g *Generator) Appraise(name string, price int64) Appraisal {
	prefixName, typeName := SplitName(name)
	prefix, prefixFound := LookupPrefix(prefixName)
	itemType, typeFound := LookupType(typeName)

	g.mu.Lock()
	fluctuation := 0.8 + g.src.Float64()*0.7
	g.mu.Unlock()

	value := math.Floor(float64(price) * itemType.SellFactor * prefix.SellMult * fluctuation)
	if value < 0 {
		value = 0
	}

	return Appraisal{
		Value:            int64(value),
		Prefix:           prefix,
		Type:             itemType,
		PrefixResolution: resolution(prefixFound),
		TypeResolution:   resolution(typeFound),
		Fluctuation:      fluctuation,
	}
}

// SplitName returns the first token as prefix and the remaining tokens as the type name.
// A single-token name is used for both.
func SplitName(name string) (prefix, itemType string) {
	parts := strings.Split(name, " ")
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}
