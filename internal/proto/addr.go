package proto

// AddrVec is an ordered tuple of per-level indices, one per Level
// (channel, rank, bankgroup, bank, row, column). -1 means "any / broadcast"
// at that level.
type AddrVec [NumLevels]int

// Any constructs an AddrVec with every position wildcarded.
func Any() AddrVec {
	var av AddrVec
	for i := range av {
		av[i] = -1
	}
	return av
}

// At returns the index at the given level, or -1 if level is out of range.
func (a AddrVec) At(level Level) int {
	if level < 0 || int(level) >= NumLevels {
		return -1
	}
	return a[level]
}

// WithRow returns a copy of a with the row position set.
func (a AddrVec) WithRow(row int) AddrVec {
	a[Row] = row
	return a
}

// BankKey returns the (channel, rank, bankgroup, bank) prefix used to
// identify "the same bank" while ignoring row/column — used by the
// row-close veto and active-buffer overlap checks, which operate at bank
// granularity and ignore wildcards above the bank level.
type BankKey [Bank + 1]int

// Bank returns the bank-granularity key for this address, or ok=false if
// any level up to Bank is wildcarded (a broadcast address overlaps
// everything and must be handled by the caller, not collapsed to one key).
func (a AddrVec) Bank() (BankKey, bool) {
	var k BankKey
	for lvl := Channel; lvl <= Bank; lvl++ {
		v := a[lvl]
		if v == -1 {
			return k, false
		}
		k[lvl] = v
	}
	return k, true
}

// Overlaps reports whether two AddrVecs could refer to overlapping
// hardware at bank granularity: every level from channel..bank either
// matches or is wildcarded in at least one of the two vectors.
func (a AddrVec) Overlaps(b AddrVec) bool {
	for lvl := Channel; lvl <= Bank; lvl++ {
		av, bv := a[lvl], b[lvl]
		if av == -1 || bv == -1 {
			continue
		}
		if av != bv {
			return false
		}
	}
	return true
}

// SameChannel reports whether two AddrVecs name the same channel (or
// either wildcards it).
func (a AddrVec) SameChannel(b AddrVec) bool {
	return a[Channel] == -1 || b[Channel] == -1 || a[Channel] == b[Channel]
}

// SameRank reports whether two AddrVecs name the same rank (or either
// wildcards it). JEDEC rank-level parallelism means cross-rank commands
// never contend for the same timing resource.
func (a AddrVec) SameRank(b AddrVec) bool {
	return a[Rank] == -1 || b[Rank] == -1 || a[Rank] == b[Rank]
}

// SameBankGroup reports whether two AddrVecs name the same bank group.
func (a AddrVec) SameBankGroup(b AddrVec) bool {
	return a[BankGroup] == -1 || b[BankGroup] == -1 || a[BankGroup] == b[BankGroup]
}
