// Package coin is the currency primitive used by escrow fees: an
// overflow-checked Balance and a Coin record that carries one.
package coin

import (
	"math"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/typetag"
)

func init() {
	typetag.Register[Coin]("coin", "Coin")
	typetag.Register[Balance]("coin", "Balance")
}

// Balance is an amount of currency not yet wrapped in a record.
type Balance struct {
	Value uint64 `json:"value"`
}

// Join returns the sum of b and o.
func (b Balance) Join(o Balance) (Balance, error) {
	if b.Value > math.MaxUint64-o.Value {
		return Balance{}, fault.InvalidState(ir.ZeroID, "balance overflow: %d + %d", b.Value, o.Value)
	}
	return Balance{Value: b.Value + o.Value}, nil
}

// Split takes amount out of b, returning the remainder and the taken part.
func (b Balance) Split(amount uint64) (rest, taken Balance, err error) {
	if amount > b.Value {
		return b, Balance{}, fault.InvalidState(ir.ZeroID, "insufficient balance: have %d, need %d", b.Value, amount)
	}
	return Balance{Value: b.Value - amount}, Balance{Value: amount}, nil
}

// Coin is a record holding a balance.
type Coin struct {
	object.UID
	Balance Balance `json:"balance"`
}

// Mint creates a coin worth value, held by the sender.
func Mint(tx *object.Tx, value uint64) (ir.ID, error) {
	return FromBalance(tx, Balance{Value: value})
}

// FromBalance wraps b in a new coin held by the sender.
func FromBalance(tx *object.Tx, b Balance) (ir.ID, error) {
	return object.Create(tx, Coin{UID: object.NewUID(tx), Balance: b})
}

// IntoBalance destroys coin id and returns its balance.
func IntoBalance(tx *object.Tx, id ir.ID) (Balance, error) {
	c, err := object.Unpack[Coin](tx, id)
	if err != nil {
		return Balance{}, err
	}
	return c.Balance, nil
}

// Value returns the amount held by coin id.
func Value(tx *object.Tx, id ir.ID) (uint64, error) {
	c, err := object.Get[Coin](tx, id)
	if err != nil {
		return 0, err
	}
	return c.Balance.Value, nil
}

// Split moves amount out of coin id into a new coin held by the sender.
func Split(tx *object.Tx, id ir.ID, amount uint64) (ir.ID, error) {
	var taken Balance
	err := object.Mutate(tx, id, func(c *Coin) error {
		rest, t, err := c.Balance.Split(amount)
		if err != nil {
			return err
		}
		c.Balance, taken = rest, t
		return nil
	})
	if err != nil {
		return ir.ZeroID, err
	}
	return FromBalance(tx, taken)
}

// Join destroys coin src and adds its value to coin dst.
func Join(tx *object.Tx, dst, src ir.ID) error {
	if dst == src {
		return fault.InvalidState(src, "cannot join a coin with itself")
	}
	b, err := IntoBalance(tx, src)
	if err != nil {
		return err
	}
	return object.Mutate(tx, dst, func(c *Coin) error {
		joined, err := c.Balance.Join(b)
		if err != nil {
			return err
		}
		c.Balance = joined
		return nil
	})
}
