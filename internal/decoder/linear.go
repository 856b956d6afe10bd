// Package decoder provides reference IAddressDecoder implementations that
// split a flat address into the organization's level vector.
package decoder

import "github.com/kestrel-sim/dramcore/internal/proto"

// Linear decodes a flat byte address into (channel, rank, bankgroup,
// bank, row, column) by successive modulo/divide against each level's
// fan-out, from the fastest-changing dimension (column) up. This mirrors
// the conventional "interleave at cacheline, stripe up the hierarchy"
// address map used when no custom decoder is configured.
type Linear struct {
	counts      [proto.NumLevels]int
	burstLength int // bytes per column access; column index is addr/burstLength
	order       []proto.Level
}

// NewLinear builds a decoder for the given per-level fan-out and column
// burst size (in bytes). order lists levels from fastest- to
// slowest-changing; a level missing from order always decodes to 0.
// Callers typically pass DefaultOrder().
func NewLinear(counts [proto.NumLevels]int, burstLength int, order []proto.Level) *Linear {
	return &Linear{counts: counts, burstLength: burstLength, order: order}
}

// DefaultOrder is the conventional column-fastest interleave, with the
// row above channel as the slowest-changing field.
func DefaultOrder() []proto.Level {
	return []proto.Level{proto.Column, proto.Bank, proto.BankGroup, proto.Rank, proto.Channel, proto.Row}
}

func (d *Linear) Decode(addr int64) proto.AddrVec {
	var av proto.AddrVec
	rem := addr / int64(d.burstLength)
	for _, lvl := range d.order {
		count := int64(d.counts[lvl])
		if count <= 0 {
			av[lvl] = 0
			continue
		}
		av[lvl] = int(rem % count)
		rem /= count
	}
	return av
}
