package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// Node is one position in the organization tree (channel, rank, bankgroup,
// or bank — row and column are addressed but never instantiated, per
// spec.md §3/§9). Dispatch is by (level, command) table lookup on Spec
// rather than by subtype, so Node is a single plain record shared by every
// level.
type Node struct {
	spec   *Spec
	level  proto.Level
	id     int
	parent *Node
	children []*Node

	state   proto.State
	openRow int // -1 if no row open; meaningful only for Bank nodes

	cmdReadyClk [proto.NumCommands]int64
	cmdHistory  [proto.NumCommands][]int64 // index 0 = most recent issue
}

func newNode(spec *Spec, parent *Node, level proto.Level, id int) *Node {
	n := &Node{
		spec:    spec,
		level:   level,
		id:      id,
		parent:  parent,
		state:   proto.InitState(level),
		openRow: -1,
	}
	for cmd := 0; cmd < proto.NumCommands; cmd++ {
		n.cmdReadyClk[cmd] = -1
	}

	if level == proto.Bank {
		return n // banks are leaves
	}
	fanout := spec.Org.Count[level+1]
	for i := 0; i < fanout; i++ {
		n.children = append(n.children, newNode(spec, n, level+1, i))
	}
	return n
}

// pushHistory records clk as the most recent issue of cmd at this node,
// discarding the oldest entry once the bounded window is full. Nodes for
// which no constraint keys a window on cmd keep an empty history, per
// spec.md §3 ("empty if unused").
func (n *Node) pushHistory(cmd proto.Command, clk int64) {
	window := n.spec.historyWindowFor(n.level, cmd)
	if window == 0 {
		return
	}
	h := n.cmdHistory[cmd]
	h = append([]int64{clk}, h...)
	if len(h) > window {
		h = h[:window]
	}
	n.cmdHistory[cmd] = h
}

// historyAt returns the window-th most recent issue of cmd (1-indexed), or
// (-1, false) if there is not yet enough history.
func (n *Node) historyAt(cmd proto.Command, window int) (int64, bool) {
	h := n.cmdHistory[cmd]
	if window < 1 || window > len(h) {
		return -1, false
	}
	v := h[window-1]
	if v < 0 {
		return -1, false
	}
	return v, true
}

// updateTiming implements the recursion in spec.md §4.1: sibling
// constraints at the addressed level push forward ready_clk on *other*
// nodes at the same level without recursing further; a constraint at the
// targeted node updates its own history and ready_clk, then recurses into
// every child (children av does not address take the sibling branch).
// This recursion is unconditional (it always
// continues to the leaves), independent of the command's action/power
// scope.
func (n *Node) updateTiming(cmd proto.Command, av proto.AddrVec, clk int64) {
	addressed := av.At(n.level)

	if n.id != addressed && addressed != -1 {
		for _, c := range n.spec.constraintsFor(n.level, cmd) {
			if !c.Sibling {
				continue
			}
			future := clk + c.Latency
			if future > n.readyClkOfSibling(c.Following) {
				n.setSiblingReadyClk(c.Following, future)
			}
		}
		return
	}

	n.pushHistory(cmd, clk)
	for _, c := range n.spec.constraintsFor(n.level, cmd) {
		if c.Sibling {
			continue
		}
		past, ok := n.historyAt(cmd, c.Window)
		if !ok {
			continue
		}
		future := past + c.Latency
		if future > n.cmdReadyClk[c.Following] {
			n.cmdReadyClk[c.Following] = future
		}
	}

	if len(n.children) == 0 {
		return
	}
	for _, child := range n.children {
		child.updateTiming(cmd, av, clk)
	}
}

// readyClkOfSibling/setSiblingReadyClk exist only to make the sibling
// branch above read naturally; siblings are just "this node, addressed
// under a different id", so the update is applied to n itself (the node
// doing the walking IS the sibling of the addressed node at this level).
func (n *Node) readyClkOfSibling(cmd proto.Command) int64 {
	return n.cmdReadyClk[cmd]
}

func (n *Node) setSiblingReadyClk(cmd proto.Command, clk int64) {
	n.cmdReadyClk[cmd] = clk
}

// checkReady reports whether, for every node touched by (cmd, av) up to
// the command's scope level, the current clock has reached that node's
// ready_clk[cmd]. Recursion stops at cmd.Scope() (or at a leaf), exactly
// like the action/power hooks — a command is "ready" once every node it
// will actually act on has cleared its constraint, not every descendant.
func (n *Node) checkReady(cmd proto.Command, av proto.AddrVec, clk int64) bool {
	if cmd == proto.NoCommand {
		return false
	}
	if clk < n.cmdReadyClk[cmd] {
		return false
	}
	if n.level == cmd.Scope() || len(n.children) == 0 {
		return true
	}
	childID := av.At(n.level + 1)
	if childID == -1 {
		for _, child := range n.children {
			if !child.checkReady(cmd, av, clk) {
				return false
			}
		}
		return true
	}
	return n.children[childID].checkReady(cmd, av, clk)
}

// readyCycle returns the max ready_clk[cmd] over every node touched by av,
// per spec.md §4.1 ("the max of ready_clk[cmd] over all touched nodes").
// On recursion this returns the node's own ready_clk[cmd] rather than a
// bool — spec.md §9 open question 1, resolved as documented there.
func (n *Node) readyCycle(cmd proto.Command, av proto.AddrVec) int64 {
	addressed := av.At(n.level)
	if addressed != -1 && addressed != n.id {
		return -1
	}
	best := n.cmdReadyClk[cmd]
	if len(n.children) == 0 {
		return best
	}
	childID := av.At(n.level + 1)
	if childID == -1 {
		for _, child := range n.children {
			if v := child.readyCycle(cmd, av); v > best {
				best = v
			}
		}
		return best
	}
	if v := n.children[childID].readyCycle(cmd, av); v > best {
		best = v
	}
	return best
}

// updateStates runs the action hook for (level, cmd) at every node the
// command's scope reaches, per spec.md §4.1: dispatch at this level, then
// recurse into children only until the command's declared scope level.
func (n *Node) updateStates(cmd proto.Command, av proto.AddrVec, clk int64) {
	childID := av.At(n.level + 1)
	if fn := n.spec.actions[n.level][cmd]; fn != nil {
		fn(n, childID, clk)
	}
	if n.level == cmd.Scope() || len(n.children) == 0 {
		return
	}
	if childID == -1 {
		for _, child := range n.children {
			child.updateStates(cmd, av, clk)
		}
	} else {
		n.children[childID].updateStates(cmd, av, clk)
	}
}

// updatePower runs the power hook at every node the command's scope
// reaches, mirroring updateStates. It is a no-op tree walk when no power
// hook is registered at a level.
func (n *Node) updatePower(cmd proto.Command, av proto.AddrVec, clk int64, obs PowerObserver) {
	childID := av.At(n.level + 1)
	if fn := n.spec.power[n.level][cmd]; fn != nil {
		fn(n, av, clk, obs)
	}
	if n.level == cmd.Scope() || len(n.children) == 0 {
		return
	}
	if childID == -1 {
		for _, child := range n.children {
			child.updatePower(cmd, av, clk, obs)
		}
	} else {
		n.children[childID].updatePower(cmd, av, clk, obs)
	}
}

// getPrereq returns the next command that must be issued to make progress
// toward cmd, per spec.md §4.1: the first level with a registered
// prerequisite function wins; -1 from that function means "do not
// interrupt this bank", which stops the recursion (and the search) rather
// than falling through to a child.
func (n *Node) getPrereq(cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	if fn := n.spec.prereqs[n.level][cmd]; fn != nil {
		return fn(n, cmd, av, clk)
	}
	if len(n.children) == 0 {
		return proto.NoCommand
	}
	childID := av.At(n.level + 1)
	if childID == -1 || childID >= len(n.children) {
		return proto.NoCommand
	}
	return n.children[childID].getPrereq(cmd, av, clk)
}

// bankAt walks down to the Bank node named by av, or nil if av does not
// fully specify one.
func (n *Node) bankAt(av proto.AddrVec) *Node {
	cur := n
	for cur.level != proto.Bank {
		if len(cur.children) == 0 {
			return nil
		}
		id := av.At(cur.level + 1)
		if id == -1 || id >= len(cur.children) {
			return nil
		}
		cur = cur.children[id]
	}
	return cur
}
