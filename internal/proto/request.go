package proto

// ReqType is the kind of request a front-end or collaborator enqueues.
type ReqType int

const (
	Read ReqType = iota
	Write
	RowClone
	Majority
	Fractional
	Refresh
	Open
	Close
)

var reqTypeNames = map[ReqType]string{
	Read:       "read",
	Write:      "write",
	RowClone:   "rowclone",
	Majority:   "majority",
	Fractional: "fractional",
	Refresh:    "refresh",
	Open:       "open",
	Close:      "close",
}

func (t ReqType) String() string {
	if n, ok := reqTypeNames[t]; ok {
		return n
	}
	return "reqtype?"
}

// FinalCommand returns the command that, once issued, completes a request
// of this type. Read/Write/RowClone/Majority/Fractional arrive over the
// trace wire; Refresh/Open/Close are created internally by collaborators.
func (t ReqType) FinalCommand() Command {
	switch t {
	case Read:
		return RD
	case Write:
		return WR
	case RowClone:
		return RC
	case Majority:
		return MAJ
	case Fractional:
		return FRAC
	case Refresh:
		return REFab
	case Open:
		return ACT
	case Close:
		return PRE
	}
	return NoCommand
}

// Callback is invoked when a request departs (its final command has fully
// completed, e.g. a read's data becomes available).
type Callback func(*Request)

// Request is one in-flight access as it moves through the controller's
// buffers and the device's command sequence.
type Request struct {
	Type    ReqType
	Addr    int64 // flat address, as it arrived over the wire
	AddrVec AddrVec

	FinalCommand Command // the command that completes this request
	Command      Command // the next command to issue, or FinalCommand when ready

	Arrive int64 // cycle of arrival; -1 if rejected by back-pressure
	Depart int64 // cycle the request's effect (e.g. read data) is visible

	Callback Callback
	SourceID int // originating core, for per-core stats

	StatUpdated bool // true once per-request stats have been counted
}

// NewRequest builds a Request for the given type and flat address. AddrVec
// is left zero; the caller (typically via an IAddressDecoder) must fill it
// in before the request is usable by the controller.
func NewRequest(t ReqType, addr int64) *Request {
	final := t.FinalCommand()
	return &Request{
		Type:         t,
		Addr:         addr,
		FinalCommand: final,
		Command:      final,
		Arrive:       -1,
		Depart:       -1,
	}
}

// IsDone reports whether the request's current Command is its final
// command. A fresh request starts with Command == FinalCommand, so this is
// also true before anything has issued; right after an issue it tells
// whether the issued command was the final one.
func (r *Request) IsDone() bool {
	return r.Command == r.FinalCommand
}
