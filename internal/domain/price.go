package domain

import "time"

// Direction represents the price movement direction
type Direction int

const (
	DirectionSame Direction = 0
	DirectionUp   Direction = +1
	DirectionDown Direction = -1
)

// PriceState holds the last observed price of a token and how it moved
type PriceState struct {
	Price     float64
	HasValue  bool
	Direction Direction
	UpdatedAt time.Time
}

// Update records a new price. Returns true if the price has changed.
func (ps *PriceState) Update(price float64, at time.Time) bool {
	ps.UpdatedAt = at

	if !ps.HasValue {
		ps.HasValue = true
		ps.Price = price
		ps.Direction = DirectionSame
		return true
	}

	prev := ps.Price
	switch {
	case price > prev:
		ps.Direction = DirectionUp
	case price < prev:
		ps.Direction = DirectionDown
	default:
		ps.Direction = DirectionSame
		return false
	}
	ps.Price = price
	return true
}
