package generator

// ItemType is an auctionable base item
type ItemType struct {
	Name       string
	BasePrice  float64
	SellFactor float64
}

// Prefix modifies an item's price and resale value
type Prefix struct {
	Name      string
	PriceMult float64
	SellMult  float64
}

// ItemTypes is the static type table. Index 0 is the lookup fallback.
var ItemTypes = []ItemType{
	{Name: "Stick", BasePrice: 2, SellFactor: 1.0},
	{Name: "Rock", BasePrice: 3, SellFactor: 1.0},
	{Name: "Pebble", BasePrice: 5, SellFactor: 1.0},
	{Name: "Flower", BasePrice: 8, SellFactor: 1.5},
	{Name: "Apple", BasePrice: 10, SellFactor: 1.2},
	{Name: "Bread", BasePrice: 15, SellFactor: 1.2},
	{Name: "Dagger", BasePrice: 20, SellFactor: 1.5},
	{Name: "Compass", BasePrice: 25, SellFactor: 2.0},
	{Name: "Shield", BasePrice: 30, SellFactor: 1.8},
	{Name: "Map", BasePrice: 35, SellFactor: 2.5},
	{Name: "Sword", BasePrice: 40, SellFactor: 2.0},
	{Name: "Helm", BasePrice: 45, SellFactor: 1.9},
	{Name: "Potion", BasePrice: 50, SellFactor: 2.5},
	{Name: "Orb", BasePrice: 55, SellFactor: 3.0},
	{Name: "Amulet", BasePrice: 60, SellFactor: 3.2},
	{Name: "Ring", BasePrice: 70, SellFactor: 3.0},
	{Name: "Chalice", BasePrice: 80, SellFactor: 3.5},
	{Name: "Scepter", BasePrice: 90, SellFactor: 3.8},
	{Name: "Crown", BasePrice: 100, SellFactor: 4.0},
}

// Prefixes is the static prefix table. Index 0 is the lookup fallback.
var Prefixes = []Prefix{
	// Drawbacks: cheap, low yield
	{Name: "Smelly", PriceMult: 0.1, SellMult: 1.4},
	{Name: "Sticky", PriceMult: 0.2, SellMult: 1.4},
	{Name: "Dirty", PriceMult: 0.3, SellMult: 1.4},
	{Name: "Fragile", PriceMult: 0.35, SellMult: 1.4},
	{Name: "Cracked", PriceMult: 0.4, SellMult: 1.4},
	{Name: "Broken", PriceMult: 0.5, SellMult: 1.4},
	{Name: "Ugly", PriceMult: 0.5, SellMult: 1.5},
	{Name: "Moldy", PriceMult: 0.6, SellMult: 1.4},
	{Name: "Rusty", PriceMult: 0.7, SellMult: 1.5},
	{Name: "Dusty", PriceMult: 0.8, SellMult: 1.5},
	{Name: "Counterfeit", PriceMult: 4.0, SellMult: 1.5},
	{Name: "Cursed", PriceMult: 2.0, SellMult: 1.5},
	{Name: "Haunted", PriceMult: 2.5, SellMult: 1.5},

	// Standard and better
	{Name: "Wooden", PriceMult: 1.0, SellMult: 1.6},
	{Name: "Common", PriceMult: 1.0, SellMult: 1.6},
	{Name: "Heavy", PriceMult: 1.1, SellMult: 1.7},
	{Name: "Polished", PriceMult: 1.2, SellMult: 1.8},
	{Name: "Shiny", PriceMult: 1.3, SellMult: 1.9},
	{Name: "Iron", PriceMult: 1.5, SellMult: 2.0},
	{Name: "Steel", PriceMult: 2.0, SellMult: 2.5},
	{Name: "Silver", PriceMult: 3.0, SellMult: 3.0},
	{Name: "Reinforced", PriceMult: 3.5, SellMult: 3.5},
	{Name: "Gold", PriceMult: 5.0, SellMult: 5.0},
	{Name: "Magic", PriceMult: 6.0, SellMult: 6.0},
	{Name: "Diamond", PriceMult: 8.0, SellMult: 9.0},
	{Name: "Ethereal", PriceMult: 7.0, SellMult: 9.0},
	{Name: "Legendary", PriceMult: 9.0, SellMult: 10.0},
	{Name: "Ancient", PriceMult: 4.0, SellMult: 12.0},
	{Name: "Mythic", PriceMult: 10.0, SellMult: 11.0},
}

// LookupType finds a type by name. On a miss it returns ItemTypes[0] and false.
func LookupType(name string) (ItemType, bool) {
	for _, t := range ItemTypes {
		if t.Name == name {
			return t, true
		}
	}
	return ItemTypes[0], false
}

// LookupPrefix finds a prefix by name. On a miss it returns Prefixes[0] and false.
func LookupPrefix(name string) (Prefix, bool) {
	for _, p := range Prefixes {
		if p.Name == name {
			return p, true
		}
	}
	return Prefixes[0], false
}
