// Package ctrl implements the memory-controller scheduler: the request
// buffers, write-mode toggle, PuM aggregation, and the per-cycle
// candidate-selection and veto pipeline described in spec.md §4.2/§4.3.
package ctrl

import (
	"github.com/kestrel-sim/dramcore/internal/device"
	"github.com/kestrel-sim/dramcore/internal/interfaces"
	"github.com/kestrel-sim/dramcore/internal/logging"
	"github.com/kestrel-sim/dramcore/internal/proto"
	"github.com/kestrel-sim/dramcore/internal/queue"
)

// pendingRead is a completed-command read awaiting its departure cycle.
type pendingRead struct {
	req    *proto.Request
	depart int64
}

// Config bounds every buffer and sets the write-mode watermarks. New uses
// every field as given; DefaultConfig supplies the reference values (all
// but ReadLatency, which the caller fills in).
type Config struct {
	ActiveBufferSize     int
	PriorityBufferSize   int
	ReadBufferSize       int
	WriteBufferSize      int
	RCBufferSize         int
	MAJBufferSize        int
	AggregatedPumSize    int
	RCThreshold          int // requests sharing an addr_vec needed to aggregate an RC
	MAJThreshold         int // same, for MAJ
	WriteLowWatermark    float64
	WriteHighWatermark   float64
	ReadLatency          int64 // nCL + nBL, precomputed by the caller
	IssuingDelaySame     int64 // APA veto slack, same bankgroup
	IssuingDelayCross    int64 // APA veto slack, different bankgroup
}

// DefaultConfig matches the reference controller's defaults.
func DefaultConfig() Config {
	return Config{
		ActiveBufferSize:   64,
		PriorityBufferSize: 512*3 + 32,
		ReadBufferSize:     64,
		WriteBufferSize:    64,
		RCBufferSize:       512,
		MAJBufferSize:      512,
		AggregatedPumSize:  32,
		RCThreshold:        16,
		MAJThreshold:       30,
		WriteLowWatermark:  0.2,
		WriteHighWatermark: 0.8,
		IssuingDelaySame:   8,
		IssuingDelayCross:  4,
	}
}

// Controller owns one device's buffers and scheduling policy. One
// Controller drives exactly one Device/channel (spec.md §5).
type Controller struct {
	cfg    Config
	dev    *device.Device
	sched  interfaces.IScheduler
	refr   interfaces.IRefreshManager
	policy interfaces.IRowPolicy
	plugins []interfaces.IControllerPlugin

	active       *queue.Buffer
	priority     *queue.Buffer
	readBuf      *queue.Buffer
	writeBuf     *queue.Buffer
	rcBuf        *queue.Buffer
	majBuf       *queue.Buffer
	aggregated   *queue.Buffer

	pending []pendingRead

	writeMode bool

	log *logging.Logger
	obs interfaces.StatsObserver

	Stats Stats
}

// New builds a Controller wired to dev, a scheduler plug-in for
// read/write/active selection, a refresh manager, and a row policy.
func New(cfg Config, dev *device.Device, sched interfaces.IScheduler, refr interfaces.IRefreshManager, policy interfaces.IRowPolicy) *Controller {
	return &Controller{
		cfg:        cfg,
		dev:        dev,
		sched:      sched,
		refr:       refr,
		policy:     policy,
		active:     queue.NewBuffer(cfg.ActiveBufferSize),
		priority:   queue.NewBuffer(cfg.PriorityBufferSize),
		readBuf:    queue.NewBuffer(cfg.ReadBufferSize),
		writeBuf:   queue.NewBuffer(cfg.WriteBufferSize),
		rcBuf:      queue.NewBuffer(cfg.RCBufferSize),
		majBuf:     queue.NewBuffer(cfg.MAJBufferSize),
		aggregated: queue.NewBuffer(cfg.AggregatedPumSize),
		log:        logging.Default(),
	}
}

// AddPlugin registers an additional per-cycle observer, driven after the
// row policy on every tick.
func (c *Controller) AddPlugin(p interfaces.IControllerPlugin) {
	c.plugins = append(c.plugins, p)
}

// SetObserver wires an optional statistics observer, driven alongside
// Stats on every tick and every completed read.
func (c *Controller) SetObserver(obs interfaces.StatsObserver) {
	c.obs = obs
}

// SetPolicy replaces the row policy after construction — needed when a
// policy (e.g. rowpolicy.ClosedPage) itself needs to submit requests back
// into this controller, which can't happen until the controller exists.
func (c *Controller) SetPolicy(policy interfaces.IRowPolicy) {
	c.policy = policy
}

// Idle reports whether every buffer and the pending-departure queue are
// empty — nothing is in flight and nothing is waiting to be scheduled.
func (c *Controller) Idle() bool {
	return c.active.Empty() && c.priority.Empty() && c.readBuf.Empty() &&
		c.writeBuf.Empty() && c.rcBuf.Empty() && c.majBuf.Empty() &&
		c.aggregated.Empty() && len(c.pending) == 0
}

// PrioritySend implements interfaces.RefreshSink.
func (c *Controller) PrioritySend(req *proto.Request) bool {
	req.Arrive = c.dev.Clock()
	if !c.priority.Enqueue(req) {
		req.Arrive = -1
		return false
	}
	return true
}

// Send enqueues an externally arriving request (Read/Write/RowClone/
// Majority/Fractional) into its matching buffer, decoding its AddrVec via
// decode first. It reports back-pressure (false) if the destination
// buffer is full, resetting req.Arrive to -1 per spec.md §5.
//
// Read arrival also implements write-forwarding (spec.md §4.2): if the
// write buffer holds a request to the same flat address, the read is
// satisfied one cycle later without ever touching the device.
func (c *Controller) Send(req *proto.Request, decode interfaces.IAddressDecoder) bool {
	req.Arrive = c.dev.Clock()
	req.AddrVec = decode.Decode(req.Addr)

	if req.Type == proto.Read {
		for i := 0; i < c.writeBuf.Len(); i++ {
			if c.writeBuf.At(i).Addr == req.Addr {
				req.Depart = c.dev.Clock() + 1
				c.pending = append(c.pending, pendingRead{req: req, depart: req.Depart})
				c.Stats.ForwardedReads++
				return true
			}
		}
	}

	var buf *queue.Buffer
	switch req.Type {
	case proto.Read:
		buf = c.readBuf
	case proto.Write:
		buf = c.writeBuf
	case proto.RowClone:
		buf = c.rcBuf
	case proto.Majority:
		buf = c.majBuf
	default:
		buf = c.aggregated
	}
	if !buf.Enqueue(req) {
		req.Arrive = -1
		return false
	}
	return true
}

// Tick advances the controller by one cycle, following spec.md §4.2's
// ten steps in order.
func (c *Controller) Tick() {
	c.dev.Tick()
	c.Stats.observeQueueLengths(c)
	if c.obs != nil {
		c.obs.ObserveQueueDepth(c.readBuf.Len() + c.writeBuf.Len() + c.priority.Len() + len(c.pending))
	}

	c.drainPendingReads()
	c.refr.Tick(c.dev.Clock(), c)
	c.aggregatePum()

	req, cmd := c.selectCandidate()
	if cmd == proto.NoCommand || req == nil {
		c.Stats.SchedulerMisses++
		c.policy.Update(false, nil)
		c.driveePlugins(false, nil)
		return
	}

	if cmd.IsClosing() && c.overlapsActive(req.AddrVec, req) {
		c.Stats.RowCloseVetoes++
		c.policy.Update(false, nil)
		c.driveePlugins(false, nil)
		return
	}

	if c.vetoesAPA(req, cmd) {
		c.Stats.APAVetoes++
		c.policy.Update(false, nil)
		c.driveePlugins(false, nil)
		return
	}

	c.issue(req, cmd)
	c.policy.Update(true, req)
	c.driveePlugins(true, req)
}

func (c *Controller) driveePlugins(found bool, req *proto.Request) {
	for _, p := range c.plugins {
		p.Update(found, req)
	}
}

// drainPendingReads implements step 2: while the oldest pending read has
// departed, invoke its callback and pop it, before anything else runs
// this cycle (spec.md §5, "invoked... before refresh and scheduling").
func (c *Controller) drainPendingReads() {
	clk := c.dev.Clock()
	i := 0
	for i < len(c.pending) && c.pending[i].depart <= clk {
		req := c.pending[i].req
		if c.obs != nil {
			c.obs.ObserveReadLatency(req.Depart - req.Arrive)
		}
		if req.Callback != nil {
			req.Callback(req)
		}
		queue.Put(req)
		i++
	}
	c.pending = c.pending[i:]
}

// aggregatePum implements step 4: move one representative MAJ/RC request
// to the aggregated buffer once enough requests share an addr_vec.
func (c *Controller) aggregatePum() {
	if c.aggregated.Len()+1 > c.aggregated.MaxSize {
		return
	}
	queue.MoveNMatching(c.majBuf, c.aggregated, c.cfg.MAJThreshold)
	queue.MoveNMatching(c.rcBuf, c.aggregated, c.cfg.RCThreshold)
}

// selectCandidate implements step 5's priority order: active, then
// priority, then aggregated PuM, then read/write.
func (c *Controller) selectCandidate() (*proto.Request, proto.Command) {
	if req, ok := c.sched.GetBestRequest(c.active); ok {
		cmd := c.dev.GetPrereq(req.FinalCommand, req.AddrVec)
		if cmd != proto.NoCommand && c.dev.CheckReady(cmd, req.AddrVec) {
			req.Command = cmd
			return req, cmd
		}
		return nil, proto.NoCommand
	}

	if req := c.priority.Front(); req != nil {
		cmd := c.dev.GetPrereq(req.FinalCommand, req.AddrVec)
		if cmd != proto.NoCommand && c.dev.CheckReady(cmd, req.AddrVec) {
			req.Command = cmd
			return req, cmd
		}
		return nil, proto.NoCommand
	}

	for i := 0; i < c.aggregated.Len(); i++ {
		req := c.aggregated.At(i)
		cmd := c.dev.GetPrereq(req.FinalCommand, req.AddrVec)
		if cmd != proto.NoCommand && c.dev.CheckReady(cmd, req.AddrVec) {
			req.Command = cmd
			return req, cmd
		}
	}

	c.updateWriteMode()
	buf := c.readBuf
	if c.writeMode {
		buf = c.writeBuf
	}
	if req, ok := c.sched.GetBestRequest(buf); ok {
		cmd := c.dev.GetPrereq(req.FinalCommand, req.AddrVec)
		if cmd != proto.NoCommand && c.dev.CheckReady(cmd, req.AddrVec) {
			req.Command = cmd
			return req, cmd
		}
	}
	return nil, proto.NoCommand
}

// updateWriteMode implements the write-mode hysteresis (spec.md §4.2).
func (c *Controller) updateWriteMode() {
	if !c.writeMode {
		if float64(c.writeBuf.Len()) > c.cfg.WriteHighWatermark*float64(c.cfg.WriteBufferSize) || c.readBuf.Len() == 0 {
			c.writeMode = true
		}
		return
	}
	if float64(c.writeBuf.Len()) < c.cfg.WriteLowWatermark*float64(c.cfg.WriteBufferSize) && c.readBuf.Len() != 0 {
		c.writeMode = false
	}
}

// overlapsActive implements step 7: a closing command is vetoed if it
// overlaps, at bank granularity, any entry already in the active buffer.
func (c *Controller) overlapsActive(av proto.AddrVec, self *proto.Request) bool {
	for i := 0; i < c.active.Len(); i++ {
		other := c.active.At(i)
		if other == self {
			continue
		}
		if av.Overlaps(other.AddrVec) {
			return true
		}
	}
	return false
}

// issue implements step 9: issue the command, and either complete the
// request (reads depart, writes with Command==FinalCommand drop out
// entirely per spec.md §9 open question 2) or promote it into the active
// buffer once its opening command has fired.
func (c *Controller) issue(req *proto.Request, cmd proto.Command) {
	c.dev.IssueCommand(cmd, req.AddrVec)
	req.StatUpdated = true

	if cmd == req.FinalCommand {
		c.removeFromSource(req)
		c.active.Remove(req)
		if req.Type == proto.Read {
			req.Depart = c.dev.Clock() + c.cfg.ReadLatency
			c.pending = append(c.pending, pendingRead{req: req, depart: req.Depart})
			return
		}
		// Writes (and PuM finals) are simply done; no per-write latency
		// accounting happens here — spec.md §9 open question 2.
		return
	}

	if cmd.IsOpening() {
		c.removeFromSource(req)
		if c.active.Enqueue(req) {
			return
		}
		c.log.Warn("active buffer full, dropping opened request", "addr", req.Addr)
	}
}

func (c *Controller) removeFromSource(req *proto.Request) {
	for _, buf := range []*queue.Buffer{c.readBuf, c.writeBuf, c.priority, c.aggregated} {
		buf.Remove(req)
	}
}

// vetoesAPA implements §4.3: a candidate is vetoed if it would collide
// with any other active-buffer entry currently mid-APA. A candidate taken
// from the active buffer is never compared with itself: its own next APA
// step is not an interruption.
func (c *Controller) vetoesAPA(found *proto.Request, foundCmd proto.Command) bool {
	for i := 0; i < c.active.Len(); i++ {
		active := c.active.At(i)
		if active == found {
			continue
		}
		if !active.Command.IsAPAGuard() {
			continue
		}
		if !found.AddrVec.SameChannel(active.AddrVec) || !found.AddrVec.SameRank(active.AddrVec) {
			continue
		}
		if c.vetoesPair(found, foundCmd, active) {
			return true
		}
	}
	return false
}

func (c *Controller) vetoesPair(found *proto.Request, foundCmd proto.Command, active *proto.Request) bool {
	delay := c.cfg.IssuingDelayCross
	if found.AddrVec.SameBankGroup(active.AddrVec) {
		delay = c.cfg.IssuingDelaySame
	}

	aReady := c.dev.ReadyCycle(active.Command, active.AddrVec)
	fReady := c.dev.ReadyCycle(foundCmd, found.AddrVec)

	if active.Command == proto.PREv && active.FinalCommand == proto.RC {
		switch {
		case found.FinalCommand == proto.MAJ && foundCmd == proto.ACTp:
			return !(aReady > fReady+9+delay)
		case found.FinalCommand == proto.MAJ && foundCmd == proto.PREj:
			return !(aReady > fReady+6+delay)
		case found.FinalCommand == proto.MAJ && foundCmd == proto.ACTv:
			return !(aReady > fReady+delay)
		case found.FinalCommand == proto.FRAC && foundCmd == proto.ACTp:
			return !(aReady > fReady+1+delay)
		case found.FinalCommand == proto.RC && foundCmd == proto.ACTp:
			return !(aReady > fReady+delay) || !(aReady > 6)
		}
	}
	return !(aReady > fReady+delay)
}
