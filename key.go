package walletd

import (
	"bytes"

	"github.com/pandodao/mtg/mtgpack"
)

// Journal keys are a fixed prefix followed by mtgpack-encoded values, so
// lexical order follows encode order.

func buildIndexKey(prefix []byte, values ...any) []byte {
	enc := mtgpack.NewEncoder()
	if err := enc.EncodeValues(values...); err != nil {
		panic(err)
	}

	return append(prefix, enc.Bytes()...)
}

func decodeIndexKey(key, prefix []byte, values ...any) error {
	b := bytes.TrimPrefix(key, prefix)
	dec := mtgpack.NewDecoder(b)
	return dec.DecodeValues(values...)
}
