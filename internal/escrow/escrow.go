// Package escrow implements a three-party atomic exchange of two records.
//
// Each party wraps the record it offers, together with a fee, into an
// Escrowed record and hands it to an operator both parties trust:
//
//	creator --Create--> Escrowed{Item: embedded} --> operator
//	operator --Swap(a, b)--> items cross to the other creator, fees to operator
//	operator --Return(a)--> item and fee back to the creator
//
// Swap either completes every step or none of them. The host discards the
// transaction's effects when Swap returns an error.
package escrow

import (
	"strconv"

	"github.com/roach88/objstore/internal/coin"
	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/typetag"
)

func init() {
	typetag.Register[Escrowed]("escrow", "Escrowed")
}

// Escrowed wraps one offered record. Item is embedded in the escrow and
// unreachable until the escrow is unpacked.
type Escrowed struct {
	object.UID
	Creator     ir.Address   `json:"creator"`
	Recipient   ir.Address   `json:"recipient"`
	ExchangeFor ir.ID        `json:"exchange_for"`
	Item        ir.ID        `json:"item"`
	Fee         coin.Balance `json:"fee"`
}

// Terms decides whether two offered items may be exchanged.
// *terms.Predicate implements it.
type Terms interface {
	Match(a, b any) (bool, error)
}

// Offer describes what the sender puts into escrow.
type Offer struct {
	Item        ir.ID      // record offered, uniquely held by the sender
	Recipient   ir.Address // party expected to receive Item
	ExchangeFor ir.ID      // record expected in return
	FeeCoin     ir.ID      // coin consumed as the operator's fee
}

// Create wraps offer.Item and the fee into a new escrow and transfers it
// to operator. The fee coin must be worth at least minFee.
func Create(tx *object.Tx, offer Offer, operator ir.Address, minFee uint64) (ir.ID, error) {
	if operator.IsZero() {
		return ir.ZeroID, fault.InvalidState(offer.Item, "escrow operator must be set")
	}
	fee, err := coin.IntoBalance(tx, offer.FeeCoin)
	if err != nil {
		return ir.ZeroID, err
	}
	if fee.Value < minFee {
		return ir.ZeroID, fault.InvalidState(offer.FeeCoin, "fee %d is below the minimum %d", fee.Value, minFee)
	}

	e := Escrowed{
		UID:         object.NewUID(tx),
		Creator:     tx.Sender(),
		Recipient:   offer.Recipient,
		ExchangeFor: offer.ExchangeFor,
		Item:        offer.Item,
		Fee:         fee,
	}
	id, err := object.CreateWith(tx, e, offer.Item)
	if err != nil {
		return ir.ZeroID, err
	}
	if err := object.Transfer(tx, id, operator); err != nil {
		return ir.ZeroID, err
	}
	tx.Emit(ir.EventEscrowCreated, id, ir.IRObject{
		"item":      ir.IRString(offer.Item.String()),
		"recipient": ir.IRString(offer.Recipient.String()),
		"fee":       amount(fee.Value),
	})
	return id, nil
}

// amount renders a balance for event fields. IR integers are signed 64-bit,
// so balances travel as decimal strings.
func amount(v uint64) ir.IRValue {
	return ir.IRString(strconv.FormatUint(v, 10))
}

// Swapped reports the outcome of a successful Swap.
type Swapped struct {
	FeeCoin ir.ID  // coin holding both fees, held by the operator
	Fee     uint64 // total fee collected
}

// Swap exchanges the items of escrows a and b. The sender must hold both
// escrows. The escrows must name each other's item and creator, and both
// items, read as T, must satisfy terms. Both escrow identifiers are
// retired.
func Swap[T object.Record](tx *object.Tx, a, b ir.ID, terms Terms) (Swapped, error) {
	if a == b {
		return Swapped{}, fault.MismatchedTerms("escrow %s cannot be swapped with itself", a.Short())
	}
	ea, err := object.Get[Escrowed](tx, a)
	if err != nil {
		return Swapped{}, err
	}
	eb, err := object.Get[Escrowed](tx, b)
	if err != nil {
		return Swapped{}, err
	}
	if ea.ExchangeFor != eb.Item || eb.ExchangeFor != ea.Item {
		return Swapped{}, fault.MismatchedTerms("escrows %s and %s do not ask for each other's item", a.Short(), b.Short())
	}
	if ea.Recipient != eb.Creator || eb.Recipient != ea.Creator {
		return Swapped{}, fault.MismatchedTerms("escrows %s and %s do not name each other's creator", a.Short(), b.Short())
	}

	if terms != nil {
		ia, err := object.Get[T](tx, ea.Item)
		if err != nil {
			return Swapped{}, err
		}
		ib, err := object.Get[T](tx, eb.Item)
		if err != nil {
			return Swapped{}, err
		}
		ok, err := terms.Match(ia, ib)
		if err != nil {
			return Swapped{}, fault.MismatchedTerms("terms could not be evaluated: %v", err)
		}
		if !ok {
			return Swapped{}, fault.MismatchedTerms("items %s and %s do not satisfy the exchange terms", ea.Item.Short(), eb.Item.Short())
		}
	}

	if _, err := object.Unpack[Escrowed](tx, a); err != nil {
		return Swapped{}, err
	}
	if _, err := object.Unpack[Escrowed](tx, b); err != nil {
		return Swapped{}, err
	}
	if err := object.Transfer(tx, ea.Item, ea.Recipient); err != nil {
		return Swapped{}, err
	}
	if err := object.Transfer(tx, eb.Item, eb.Recipient); err != nil {
		return Swapped{}, err
	}

	fee, err := ea.Fee.Join(eb.Fee)
	if err != nil {
		return Swapped{}, err
	}
	feeCoin, err := coin.FromBalance(tx, fee)
	if err != nil {
		return Swapped{}, err
	}
	tx.Emit(ir.EventEscrowSwapped, a, ir.IRObject{
		"with":     ir.IRString(b.String()),
		"fee_coin": ir.IRString(feeCoin.String()),
		"fee":      amount(fee.Value),
	})
	return Swapped{FeeCoin: feeCoin, Fee: fee.Value}, nil
}

// Return gives the item and fee of escrow id back to its creator. Only the
// escrow's holder may return it.
func Return(tx *object.Tx, id ir.ID) error {
	e, err := object.Unpack[Escrowed](tx, id)
	if err != nil {
		return err
	}
	if err := object.Transfer(tx, e.Item, e.Creator); err != nil {
		return err
	}
	feeCoin, err := coin.FromBalance(tx, e.Fee)
	if err != nil {
		return err
	}
	if err := object.Transfer(tx, feeCoin, e.Creator); err != nil {
		return err
	}
	tx.Emit(ir.EventEscrowReturn, id, ir.IRObject{
		"creator":  ir.IRString(e.Creator.String()),
		"fee_coin": ir.IRString(feeCoin.String()),
	})
	return nil
}
