// internal/domain/discount/engine.go
package discount

// Tier grants Percent off every complete group of Size units.
type Tier struct {
	Size    int `json:"size"`
	Percent int `json:"percent"`
}

// Policy is an ordered set of bulk tiers, deepest first.
type Policy struct {
	Tiers []Tier
}

// DefaultPolicy: 10 units at 20% off, then 5 at 15%, then 3 at 10%.
var DefaultPolicy = Policy{
	Tiers: []Tier{
		{Size: 10, Percent: 20},
		{Size: 5, Percent: 15},
		{Size: 3, Percent: 10},
	},
}

// Line is one priced cart line.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Group is the part of a quote consumed by one tier.
type Group struct {
	Tier     Tier  `json:"tier"`
	Count    int   `json:"count"`
	Units    int   `json:"units"`
	Subtotal int64 `json:"subtotal"`
}

// Breakdown is the full result of pricing a cart.
type Breakdown struct {
	TotalUnits    int     `json:"totalUnits"`
	RegularTotal  int64   `json:"regularTotal"`
	BasePrice     int64   `json:"basePrice"`
	Groups        []Group `json:"groups"`
	LeftoverUnits int     `json:"leftoverUnits"`
	Total         int64   `json:"total"`
	Savings       int64   `json:"savings"`
	Discounted    bool    `json:"discounted"`
}

// ComputeTotal prices lines with DefaultPolicy.
func ComputeTotal(lines []Line) int64 {
	return DefaultPolicy.Quote(lines).Total
}

// Quote prices lines with DefaultPolicy and returns the breakdown.
func Quote(lines []Line) Breakdown {
	return DefaultPolicy.Quote(lines)
}

// ActiveTier returns the deepest tier reached by totalUnits with DefaultPolicy.
func ActiveTier(totalUnits int) (Tier, bool) {
	return DefaultPolicy.ActiveTier(totalUnits)
}

// MinUnits is the smallest unit count that earns any discount.
func (p Policy) MinUnits() int {
	min := 0
	for _, t := range p.Tiers {
		if t.Size <= 0 {
			continue
		}
		if min == 0 || t.Size < min {
			min = t.Size
		}
	}
	return min
}

// ActiveTier returns the first tier whose Size fits in totalUnits.
func (p Policy) ActiveTier(totalUnits int) (Tier, bool) {
	for _, t := range p.Tiers {
		if t.Size > 0 && totalUnits >= t.Size {
			return t, true
		}
	}
	return Tier{}, false
}

// Quote consumes units greedily, deepest tier first, at a uniform base price
// taken from the first line. Carts mixing unit prices are therefore
// approximated. Once a tier has been applied, the cascade stops at the first
// lower tier the remainder cannot fill (13 units: one group of 10, then 3
// units at full price). Leftover units are charged the base price. The sum
// is rounded half-up to a whole minor unit.
func (p Policy) Quote(lines []Line) Breakdown {
	var b Breakdown
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if b.TotalUnits == 0 {
			b.BasePrice = l.UnitPrice
		}
		b.TotalUnits += l.Quantity
		b.RegularTotal += l.UnitPrice * int64(l.Quantity)
	}
	b.Groups = []Group{}

	min := p.MinUnits()
	if min == 0 || b.TotalUnits < min {
		b.Total = b.RegularTotal
		b.LeftoverUnits = b.TotalUnits
		return b
	}

	// hundredths of a minor unit, so percentages stay exact until the final rounding
	var cents100 int64
	remaining := b.TotalUnits
	started := false
	for _, t := range p.Tiers {
		if t.Size <= 0 {
			continue
		}
		count := remaining / t.Size
		if count == 0 {
			if started {
				break
			}
			continue
		}
		started = true
		units := count * t.Size
		part := b.BasePrice * int64(units) * int64(100-t.Percent)
		cents100 += part
		remaining -= units

		b.Groups = append(b.Groups, Group{
			Tier:     t,
			Count:    count,
			Units:    units,
			Subtotal: roundHalfUp(part),
		})
	}
	cents100 += b.BasePrice * int64(remaining) * 100

	b.LeftoverUnits = remaining
	b.Total = roundHalfUp(cents100)
	b.Savings = b.RegularTotal - b.Total
	b.Discounted = len(b.Groups) > 0
	return b
}

func roundHalfUp(hundredths int64) int64 {
	if hundredths >= 0 {
		return (hundredths + 50) / 100
	}
	return -((-hundredths + 49) / 100)
}
