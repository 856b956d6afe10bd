// Package uapi parses the external trace wire format: one request per
// line, "<T> <addr>", T ∈ {R,W,F,C,M}.
package uapi

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/kestrel-sim/dramcore/internal/dramerr"
	"github.com/kestrel-sim/dramcore/internal/proto"
)

// TraceEntry is one decoded trace line, before address decoding.
type TraceEntry struct {
	Type proto.ReqType
	Addr int64
}

var tokenTypes = map[string]proto.ReqType{
	"R": proto.Read,
	"W": proto.Write,
	"F": proto.Fractional,
	"C": proto.RowClone,
	"M": proto.Majority,
}

// ParseLine decodes a single trace line. A blank line (or one containing
// only whitespace) yields ok=false with a nil error, letting callers skip
// it silently; any other malformed line is a configuration error.
func ParseLine(line string) (TraceEntry, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return TraceEntry{}, false, nil
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return TraceEntry{}, false, dramerr.NewConfigError("parse_trace", "expected \"<T> <addr>\", got: "+line)
	}
	t, ok := tokenTypes[fields[0]]
	if !ok {
		return TraceEntry{}, false, dramerr.NewConfigError("parse_trace", "unknown request token: "+fields[0])
	}
	addr, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return TraceEntry{}, false, dramerr.NewConfigError("parse_trace", "invalid address: "+fields[1])
	}
	return TraceEntry{Type: t, Addr: addr}, true, nil
}

// Trace holds a fully parsed, in-memory trace and the read cursor into
// it. The cursor is not wrapped modulo the trace length on exhaustion —
// it terminates at len(entries), per spec.md §9 open question 3.
type Trace struct {
	entries []TraceEntry
	idx     int
}

// LoadTrace reads every line from r, parsing each with ParseLine; the
// first parse error aborts the whole load (configuration errors are
// fatal at init, spec.md §7).
func LoadTrace(r io.Reader) (*Trace, error) {
	scanner := bufio.NewScanner(r)
	var entries []TraceEntry
	for scanner.Scan() {
		entry, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, dramerr.Wrap("load_trace", dramerr.CodeConfiguration, err)
	}
	return &Trace{entries: entries}, nil
}

// Next returns the next entry and advances the cursor, or ok=false once
// the trace is exhausted.
func (t *Trace) Next() (TraceEntry, bool) {
	if t.idx >= len(t.entries) {
		return TraceEntry{}, false
	}
	e := t.entries[t.idx]
	t.idx++
	return e, true
}

// IsFinished reports whether every entry has been consumed.
func (t *Trace) IsFinished() bool {
	return t.idx >= len(t.entries)
}
