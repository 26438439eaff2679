package slot

import (
	"encoding/hex"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/typetag"
)

// Key is a slot key in canonical form: the key's type plus its RFC 8785
// encoding. Byte slices encode as 0x-prefixed hex strings.
type Key struct {
	Type typetag.Tag
	Data []byte
}

// KeyOf canonicalizes k. Keys that cannot be canonically encoded (floats,
// channels, nil) fail with INVALID_STATE.
func KeyOf[K any](k K) (Key, error) {
	var v any = k
	if b, ok := v.([]byte); ok {
		v = ir.IRString("0x" + hex.EncodeToString(b))
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return Key{}, fault.InvalidState(ir.ZeroID, "slot key of type %s: %v", typetag.Of[K](), err)
	}
	return Key{Type: typetag.Of[K](), Data: data}, nil
}

// SlotID returns the identity of the slot this key addresses under owner.
func (k Key) SlotID(owner ir.ID) ir.ID {
	return ir.SlotID(owner, k.Type.String(), k.Data)
}

// String renders the key as type:encoding, e.g. `string:"sword"`.
func (k Key) String() string {
	return k.Type.String() + ":" + string(k.Data)
}
