package harness

import (
	"fmt"
	"strconv"

	"github.com/roach88/objstore/internal/coin"
	"github.com/roach88/objstore/internal/demo"
	"github.com/roach88/objstore/internal/escrow"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/slot"
)

// operation is one scenario op.
type operation struct {
	refs       []string // args naming bound records
	principals []string // args naming principals
	validate   func(args map[string]any) error
	run        func(c *call) (outcome, error)
}

// outcome is what a committed step reports.
type outcome struct {
	bind  ir.ID  // record produced, bound to the step's alias
	value string // rendered query result
}

// call carries a step's resolved arguments into its transaction.
type call struct {
	tx    *object.Tx
	args  map[string]any
	ids   map[string]ir.ID
	addrs map[string]ir.Address
	env   *environment
}

// environment is the run-wide state operations need.
type environment struct {
	operator ir.Address
	minFee   uint64
	terms    escrow.Terms
}

func (c *call) id(name string) ir.ID { return c.ids[name] }

func (c *call) addr(name string) ir.Address { return c.addrs[name] }

func (c *call) str(name string) string {
	s, _ := c.args[name].(string)
	return s
}

func (c *call) num(name string) uint64 {
	switch v := c.args[name].(type) {
	case int:
		if v >= 0 {
			return uint64(v)
		}
	case int64:
		if v >= 0 {
			return uint64(v)
		}
	case uint64:
		return v
	}
	return 0
}

// socket reports whether the step keys a slot by gem socket index
// rather than by string.
func (c *call) socket() (demo.Socket, bool) {
	if _, ok := c.args["socket"]; !ok {
		return demo.Socket{}, false
	}
	return demo.Socket{Index: c.num("socket")}, true
}

func created(id ir.ID, err error) (outcome, error) {
	return outcome{bind: id}, err
}

func done(err error) (outcome, error) {
	return outcome{}, err
}

func number(n uint64, err error) (outcome, error) {
	return outcome{value: strconv.FormatUint(n, 10)}, err
}

var slotTypes = []string{"hero", "sword", "shield", "gem", "item", "string"}

var swapTypes = []string{"item", "sword"}

func oneOf(name string, allowed []string, optional bool) func(map[string]any) error {
	return func(args map[string]any) error {
		v, present := args[name]
		if !present && optional {
			return nil
		}
		s, _ := v.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("arg %q must be one of %v", name, allowed)
	}
}

func slotKey(args map[string]any) error {
	_, hasKey := args["key"].(string)
	_, hasSocket := args["socket"]
	if hasKey == hasSocket {
		return fmt.Errorf("exactly one of key or socket is required")
	}
	return nil
}

var operations = map[string]operation{
	"hero": {run: func(c *call) (outcome, error) {
		return created(demo.NewHero(c.tx, c.str("name")))
	}},
	"sword": {run: func(c *call) (outcome, error) {
		return created(demo.NewSword(c.tx, c.num("strength")))
	}},
	"shield": {run: func(c *call) (outcome, error) {
		return created(demo.NewShield(c.tx, c.num("armor")))
	}},
	"gem": {run: func(c *call) (outcome, error) {
		return created(demo.NewGem(c.tx, c.str("colour"), c.num("carat")))
	}},
	"item": {run: func(c *call) (outcome, error) {
		return created(demo.NewItem(c.tx, c.str("name"), c.num("category"), c.num("variant")))
	}},

	"mint": {run: func(c *call) (outcome, error) {
		return created(coin.Mint(c.tx, c.num("value")))
	}},
	"split": {refs: []string{"coin"}, run: func(c *call) (outcome, error) {
		return created(coin.Split(c.tx, c.id("coin"), c.num("amount")))
	}},
	"join": {refs: []string{"dst", "src"}, run: func(c *call) (outcome, error) {
		return done(coin.Join(c.tx, c.id("dst"), c.id("src")))
	}},
	"coin_value": {refs: []string{"coin"}, run: func(c *call) (outcome, error) {
		return number(coin.Value(c.tx, c.id("coin")))
	}},

	"equip": {refs: []string{"hero", "sword"}, run: func(c *call) (outcome, error) {
		return created(demo.Equip(c.tx, c.id("hero"), c.id("sword")))
	}},
	"equip_shield": {refs: []string{"hero", "shield"}, run: func(c *call) (outcome, error) {
		return done(demo.EquipShield(c.tx, c.id("hero"), c.id("shield")))
	}},
	"unequip": {refs: []string{"hero"}, run: func(c *call) (outcome, error) {
		return created(demo.Unequip(c.tx, c.id("hero")))
	}},
	"power": {refs: []string{"hero"}, run: func(c *call) (outcome, error) {
		return number(demo.Power(c.tx, c.id("hero")))
	}},
	"socket": {refs: []string{"sword", "gem"}, run: func(c *call) (outcome, error) {
		return done(demo.SocketGem(c.tx, c.id("sword"), c.id("gem"), c.num("index")))
	}},
	"socket_wielded": {refs: []string{"hero", "gem"}, run: func(c *call) (outcome, error) {
		return done(demo.SocketWielded(c.tx, c.id("hero"), c.id("gem"), c.num("index")))
	}},
	"unsocket": {refs: []string{"sword"}, run: func(c *call) (outcome, error) {
		return created(demo.Unsocket(c.tx, c.id("sword"), c.num("index")))
	}},
	"set_title": {refs: []string{"hero"}, run: func(c *call) (outcome, error) {
		return done(demo.SetTitle(c.tx, c.id("hero"), c.str("title")))
	}},
	"title": {refs: []string{"hero"}, run: func(c *call) (outcome, error) {
		t, err := demo.Title(c.tx, c.id("hero"))
		return outcome{value: strconv.Quote(t)}, err
	}},

	"transfer": {refs: []string{"object"}, principals: []string{"to"}, run: func(c *call) (outcome, error) {
		return done(object.Transfer(c.tx, c.id("object"), c.addr("to")))
	}},
	"freeze": {refs: []string{"object"}, run: func(c *call) (outcome, error) {
		return done(object.Freeze(c.tx, c.id("object")))
	}},
	"delete": {refs: []string{"object"}, run: func(c *call) (outcome, error) {
		return done(object.Delete(c.tx, c.id("object")))
	}},

	"escrow": {
		refs:       []string{"item", "exchange_for", "fee"},
		principals: []string{"recipient"},
		run: func(c *call) (outcome, error) {
			offer := escrow.Offer{
				Item:        c.id("item"),
				Recipient:   c.addr("recipient"),
				ExchangeFor: c.id("exchange_for"),
				FeeCoin:     c.id("fee"),
			}
			return created(escrow.Create(c.tx, offer, c.env.operator, c.env.minFee))
		},
	},
	"swap": {
		refs:     []string{"a", "b"},
		validate: oneOf("type", swapTypes, true),
		run: func(c *call) (outcome, error) {
			var (
				s   escrow.Swapped
				err error
			)
			switch c.str("type") {
			case "sword":
				s, err = escrow.Swap[demo.Sword](c.tx, c.id("a"), c.id("b"), c.env.terms)
			default:
				s, err = escrow.Swap[demo.Item](c.tx, c.id("a"), c.id("b"), c.env.terms)
			}
			return outcome{bind: s.FeeCoin}, err
		},
	},
	"return": {refs: []string{"escrow"}, run: func(c *call) (outcome, error) {
		return done(escrow.Return(c.tx, c.id("escrow")))
	}},

	"exists": {refs: []string{"object"}, validate: slotKey, run: func(c *call) (outcome, error) {
		owner := c.id("object")
		var ok bool
		if k, isSocket := c.socket(); isSocket {
			ok = slot.Exists(c.tx, owner, k)
		} else {
			ok = slot.Exists(c.tx, owner, c.str("key"))
		}
		return outcome{value: strconv.FormatBool(ok)}, nil
	}},
	"exists_with_type": {
		refs: []string{"object"},
		validate: func(args map[string]any) error {
			if err := slotKey(args); err != nil {
				return err
			}
			return oneOf("type", slotTypes, false)(args)
		},
		run: func(c *call) (outcome, error) {
			owner := c.id("object")
			var ok bool
			if k, isSocket := c.socket(); isSocket {
				ok = existsWithType(c.tx, owner, k, c.str("type"))
			} else {
				ok = existsWithType(c.tx, owner, c.str("key"), c.str("type"))
			}
			return outcome{value: strconv.FormatBool(ok)}, nil
		},
	},
	"type_of": {refs: []string{"object"}, validate: slotKey, run: func(c *call) (outcome, error) {
		owner := c.id("object")
		if k, isSocket := c.socket(); isSocket {
			tag, err := slot.TypeOf(c.tx, owner, k)
			return outcome{value: tag.String()}, err
		}
		tag, err := slot.TypeOf(c.tx, owner, c.str("key"))
		return outcome{value: tag.String()}, err
	}},
}

func existsWithType[K any](tx *object.Tx, owner ir.ID, key K, typ string) bool {
	switch typ {
	case "hero":
		return slot.ExistsWithType[demo.Hero](tx, owner, key)
	case "sword":
		return slot.ExistsWithType[demo.Sword](tx, owner, key)
	case "shield":
		return slot.ExistsWithType[demo.Shield](tx, owner, key)
	case "gem":
		return slot.ExistsWithType[demo.Gem](tx, owner, key)
	case "item":
		return slot.ExistsWithType[demo.Item](tx, owner, key)
	case "string":
		return slot.ExistsWithType[string](tx, owner, key)
	}
	return false
}
