package dramsim

import (
	"github.com/kestrel-sim/dramcore/internal/config"
	"github.com/kestrel-sim/dramcore/internal/ctrl"
	"github.com/kestrel-sim/dramcore/internal/decoder"
	"github.com/kestrel-sim/dramcore/internal/device"
	"github.com/kestrel-sim/dramcore/internal/dramerr"
	"github.com/kestrel-sim/dramcore/internal/interfaces"
	"github.com/kestrel-sim/dramcore/internal/proto"
	"github.com/kestrel-sim/dramcore/internal/refresh"
	"github.com/kestrel-sim/dramcore/internal/rowpolicy"
	"github.com/kestrel-sim/dramcore/internal/sched"
	"github.com/kestrel-sim/dramcore/internal/uapi"
)

// channel is one independent device/controller pair — one DRAM channel,
// sharing no state with any other (spec.md §5).
type channel struct {
	dev     *device.Device
	ctrl    *ctrl.Controller
	decoder interfaces.IAddressDecoder
}

// Simulator owns N independent channel pairs and advances each one tick
// per outer step, feeding it trace entries routed by address — the
// multi-channel composition point spec.md §5 describes but leaves to the
// driver (SPEC_FULL.md §5).
type Simulator struct {
	channels []*channel
	metrics  *Metrics
	obs      Observer
}

// Options configures a Simulator.
type Options struct {
	Organization device.Organization
	Timing       device.TimingParams
	NumChannels  int
	ControllerConfig ctrl.Config
	RowPolicyClosed  bool // true: ClosedPage, false: OpenPage
	Observer         Observer
}

// NewSimulator resolves org/timing into a fully specified device.Spec
// (internal/config, including density sanity and secondary-timing
// resolution) and builds NumChannels independent channel pairs, each with
// its own device.Device, ctrl.Controller, FRFCFS scheduler, all-bank
// refresh manager, row policy, and linear address decoder.
func NewSimulator(opts Options) (*Simulator, error) {
	if opts.NumChannels <= 0 {
		opts.NumChannels = 1
	}

	spec, err := config.BuildDevice(opts.Organization, opts.Timing)
	if err != nil {
		return nil, err
	}

	obs := opts.Observer
	if obs == nil {
		obs = NoOpObserver{}
	}
	metrics := NewMetrics(opts.Organization.Ranks(), Timing{
		TCKps: opts.Timing.TCKps,
		NRAS:  opts.Timing.NRAS,
		NRP:   opts.Timing.NRP,
		NBL:   opts.Timing.NBL,
		NRFC:  spec.Timing.NRFC,
	})

	s := &Simulator{metrics: metrics, obs: obs}

	cfg := opts.ControllerConfig
	if cfg.ActiveBufferSize == 0 {
		cfg = ctrl.DefaultConfig()
	}
	if cfg.ReadLatency == 0 {
		cfg.ReadLatency = spec.Timing.NCL + spec.Timing.NBL
	}

	for i := 0; i < opts.NumChannels; i++ {
		dev := device.NewDevice(spec, powerAdapter{obs})
		burstBytes := opts.Organization.ChannelWidth * int(spec.Timing.NBL) / 8
		dec := decoder.NewLinear(opts.Organization.Count, burstBytes, decoder.DefaultOrder())

		c := ctrl.New(cfg, dev, sched.NewFRFCFS(dev), refresh.NewAllBankManager(i, opts.Organization.Ranks(), spec.Timing.NREFI), rowpolicy.NewOpenPage())
		c.SetObserver(obs)
		if opts.RowPolicyClosed {
			c.SetPolicy(rowpolicy.NewClosedPage(closer{ctrl: c}))
		}

		s.channels = append(s.channels, &channel{dev: dev, ctrl: c, decoder: dec})
	}

	return s, nil
}

// powerAdapter forwards device.PowerObserver notifications to an Observer
// without requiring Observer to import internal/device.
type powerAdapter struct{ obs Observer }

func (p powerAdapter) ObserveCommand(cmd proto.Command, level proto.Level, rank int, clk int64) {
	p.obs.ObserveCommand(cmd, level, rank, clk)
}

// closer adapts *ctrl.Controller to rowpolicy.Closer: closing a page under
// closed-page policy means submitting a priority Close request, which the
// controller's own prerequisite chain then turns into a plain PRE. A bank
// mid a PuM sequence yields no command for it, so the request waits.
type closer struct {
	ctrl *ctrl.Controller
}

func (c closer) ClosePage(av proto.AddrVec) {
	req := proto.NewRequest(proto.Close, 0)
	req.AddrVec = av
	c.ctrl.PrioritySend(req)
}

// channelIndex routes a flat address to one of s.channels by low-order
// interleave — the simplest address-to-channel mapping that exercises
// every channel, left unspecified by spec.md (§5 leaves channel
// composition to the driver).
func (s *Simulator) channelIndex(addr int64) int {
	return int(addr % int64(len(s.channels)))
}

// Feed submits one trace entry to its routed channel. It returns false on
// back-pressure (the caller should retry the same entry on a later tick).
func (s *Simulator) Feed(entry uapi.TraceEntry) bool {
	req := proto.NewRequest(entry.Type, entry.Addr)
	ch := s.channels[s.channelIndex(entry.Addr)]
	return ch.ctrl.Send(req, ch.decoder)
}

// Tick advances every channel by exactly one cycle.
func (s *Simulator) Tick() {
	for _, ch := range s.channels {
		ch.ctrl.Tick()
	}
	for i := 0; i < s.Organization().Ranks(); i++ {
		// Rank-cycle accounting is approximate: a rank counts as active
		// this tick if any channel has an open bank in it.
		active := false
		for _, ch := range s.channels {
			if rankHasOpenBank(ch.dev, s.Organization(), i) {
				active = true
				break
			}
		}
		s.obs.ObserveRankCycle(i, active)
	}
}

func rankHasOpenBank(dev *device.Device, org device.Organization, rank int) bool {
	for bg := 0; bg < org.BankGroups(); bg++ {
		for ba := 0; ba < org.Banks(); ba++ {
			av := proto.Any()
			av[proto.Rank] = rank
			av[proto.BankGroup] = bg
			av[proto.Bank] = ba
			if dev.CheckNodeOpen(av) {
				return true
			}
		}
	}
	return false
}

// Organization returns the organization every channel shares.
func (s *Simulator) Organization() device.Organization {
	return s.channels[0].dev.Spec.Org
}

// Idle reports whether every channel has drained (no in-flight requests).
func (s *Simulator) Idle() bool {
	for _, ch := range s.channels {
		if !ch.ctrl.Idle() {
			return false
		}
	}
	return true
}

// Metrics returns the Simulator's accumulated power/latency metrics.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

// Run drives the simulator to completion against trace: each cycle, it
// ticks every channel, then tries to feed the next trace entry (retrying
// on back-pressure), until the trace is exhausted and every channel has
// drained. maxCycles bounds runaway loops (e.g. a back-pressured entry
// that can never be accepted); 0 means unbounded.
func (s *Simulator) Run(trace *uapi.Trace, maxCycles int64) error {
	entry, hasNext := trace.Next()
	for cycle := int64(0); hasNext || !s.Idle(); cycle++ {
		if maxCycles > 0 && cycle >= maxCycles {
			return dramerr.NewConfigError("run", "exceeded max cycle budget without draining")
		}

		s.Tick()

		if hasNext {
			if s.Feed(entry) {
				entry, hasNext = trace.Next()
			}
		}
	}
	s.obs.ObserveFinalize(s.Organization().Ranks())
	s.metrics.MarkFinalized()
	return nil
}
