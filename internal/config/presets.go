// Package config resolves an Organization and TimingParams — from named
// presets, density/rate/dq-derived secondary timings, or explicit caller
// overrides — into a fully specified device.Spec, failing loudly on any
// gap (spec.md §6, "configuration must either yield a fully specified
// timing table or fail loudly").
package config

import (
	"github.com/kestrel-sim/dramcore/internal/device"
	"github.com/kestrel-sim/dramcore/internal/dramerr"
	"github.com/kestrel-sim/dramcore/internal/proto"
)

// OrganizationPresets mirrors the reference device model's named density
// points: (density_Mb, dq, [ch, rank, bankgroup, bank, rows, cols]).
var OrganizationPresets = map[string]device.Organization{
	"DDR4_8Gb_x8": {
		DensityMb: 8192, DQ: 8, ChannelWidth: 64,
		Count: orgCount(1, 1, 4, 4, 1<<16, 1<<10),
	},
	"DDR4_8Gb_x4": {
		DensityMb: 8192, DQ: 4, ChannelWidth: 64,
		Count: orgCount(1, 1, 4, 4, 1<<17, 1<<10),
	},
	"DDR4_16Gb_x8": {
		DensityMb: 16384, DQ: 8, ChannelWidth: 64,
		Count: orgCount(1, 1, 4, 4, 1<<17, 1<<10),
	},
}

func orgCount(ch, rank, bg, bank, rows, cols int) [proto.NumLevels]int {
	var c [proto.NumLevels]int
	c[proto.Channel] = ch
	c[proto.Rank] = rank
	c[proto.BankGroup] = bg
	c[proto.Bank] = bank
	c[proto.Row] = rows
	c[proto.Column] = cols
	return c
}

// TimingPresets mirrors the reference device model's per-rate/per-speed-
// grade JEDEC tables; nRRDS/nRRDL/nFAW/nRFC/nREFI are left at -1 here
// (resolved from the secondary tables below) unless the preset overrides
// them directly.
var TimingPresets = map[string]device.TimingParams{
	"DDR4_3200W": {
		RateMTps: 3200, NBL: 4, NCL: 20, NRCD: 20, NRP: 20, NRAS: 52, NRC: 72,
		NWR: 24, NRTP: 12, NCWL: 16, NCCDS: 4, NCCDL: 8,
		NRRDS: -1, NRRDL: -1, NWTRS: 4, NWTRL: 12, NFAW: -1,
		NRFC: -1, NREFI: -1, NCS: 2, TCKps: 625,
	},
	"DDR4_3200AA": {
		RateMTps: 3200, NBL: 4, NCL: 22, NRCD: 22, NRP: 22, NRAS: 52, NRC: 74,
		NWR: 24, NRTP: 12, NCWL: 16, NCCDS: 4, NCCDL: 8,
		NRRDS: -1, NRRDL: -1, NWTRS: 4, NWTRL: 12, NFAW: -1,
		NRFC: -1, NREFI: -1, NCS: 2, TCKps: 625,
	},
	"DDR4_2400R": {
		RateMTps: 2400, NBL: 4, NCL: 16, NRCD: 16, NRP: 16, NRAS: 39, NRC: 55,
		NWR: 18, NRTP: 9, NCWL: 12, NCCDS: 4, NCCDL: 6,
		NRRDS: -1, NRRDL: -1, NWTRS: 3, NWTRL: 9, NFAW: -1,
		NRFC: -1, NREFI: -1, NCS: 2, TCKps: 833,
	},
}

// dqIndex/rateIndex pick a row/column into the secondary JEDEC tables
// below (JESD79-4C tables 169-170).
func dqIndex(dq int) (int, bool) {
	switch dq {
	case 4:
		return 0, true
	case 8:
		return 1, true
	case 16:
		return 2, true
	}
	return 0, false
}

func rateIndex(rate int64) (int, bool) {
	switch rate {
	case 1600:
		return 0, true
	case 1866:
		return 1, true
	case 2133:
		return 2, true
	case 2400:
		return 3, true
	case 2666:
		return 4, true
	case 2933:
		return 5, true
	case 3200:
		return 6, true
	case 4000:
		return 7, true
	}
	return 0, false
}

var nrrdsTable = [3][8]int64{
	{4, 4, 4, 4, 4, 4, 4, 4},
	{4, 4, 4, 4, 4, 4, 4, 4},
	{5, 5, 6, 7, 8, 8, 9, 9},
}

var nrrdlTable = [3][8]int64{
	{5, 5, 6, 6, 7, 8, 8, 8},
	{5, 5, 6, 6, 7, 8, 8, 8},
	{6, 6, 7, 8, 9, 10, 11, 11},
}

var nfawTable = [3][8]int64{
	{16, 16, 16, 16, 16, 16, 16, 16},
	{20, 22, 23, 26, 28, 31, 34, 34},
	{28, 28, 32, 36, 40, 44, 48, 48},
}

// densityIndex picks a row into the refresh tables below.
func densityIndex(densityMb int) (int, bool) {
	switch densityMb {
	case 2048:
		return 0, true
	case 4096:
		return 1, true
	case 8192:
		return 2, true
	case 16384:
		return 3, true
	}
	return 0, false
}

// nrfcNsTable is tRFC1 (normal refresh), in nanoseconds, by density.
var nrfcNsTable = [4]int64{160, 260, 360, 550}

const trefiBaseNs = 7800

// jedecRound converts a nanosecond duration to whole cycles at the given
// tCK (picoseconds), rounding up — a device must never be used before a
// JEDEC timing has actually elapsed.
func jedecRound(ns int64, tckPs int64) int64 {
	ps := ns * 1000
	cycles := ps / tckPs
	if ps%tckPs != 0 {
		cycles++
	}
	return cycles
}

// ResolveSecondary fills any -1 nRRDS/nRRDL/nFAW/nRFC/nREFI field in t
// from the density×rate×dq tables, given org. Fields the caller (or a
// preset) already specified are left untouched.
func ResolveSecondary(org device.Organization, t device.TimingParams) device.TimingParams {
	if dqi, ok := dqIndex(org.DQ); ok {
		if ri, ok := rateIndex(t.RateMTps); ok {
			if t.NRRDS == -1 {
				t.NRRDS = nrrdsTable[dqi][ri]
			}
			if t.NRRDL == -1 {
				t.NRRDL = nrrdlTable[dqi][ri]
			}
			if t.NFAW == -1 {
				t.NFAW = nfawTable[dqi][ri]
			}
		}
	}
	if di, ok := densityIndex(org.DensityMb); ok {
		if t.NRFC == -1 {
			t.NRFC = jedecRound(nrfcNsTable[di], t.TCKps)
		}
	}
	if t.NREFI == -1 {
		t.NREFI = jedecRound(trefiBaseNs, t.TCKps)
	}
	return t
}

// DensitySanity checks that bg × ba × rows × cols × dq (bits), shifted
// right by 20, equals the declared density in megabits — spec.md §6.
func DensitySanity(org device.Organization) error {
	bits := int64(org.BankGroups()) * int64(org.Banks()) * int64(org.Rows()) * int64(org.Cols()) * int64(org.DQ)
	got := bits >> 20
	if got != int64(org.DensityMb) {
		return dramerr.NewConfigError("density_sanity", "organization implies a different density than declared")
	}
	return nil
}

// BuildDevice resolves org/timing (filling secondary timings, then
// checking for any remaining -1) and compiles a device.Spec, failing with
// a configuration error if the organization is internally inconsistent or
// any timing field is still unresolved.
func BuildDevice(org device.Organization, timing device.TimingParams) (*device.Spec, error) {
	if err := DensitySanity(org); err != nil {
		return nil, err
	}
	resolved := ResolveSecondary(org, timing)
	if missing := resolved.Unresolved(); len(missing) > 0 {
		return nil, dramerr.NewConfigError("build_device", "unresolved timing fields: "+joinNames(missing))
	}
	return device.NewSpec(org, resolved), nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
