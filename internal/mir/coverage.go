package mir

import "fmt"

// CounterID identifies a physical coverage counter of a function.
type CounterID uint32

// CounterZero is the first counter ID. It also stands for "no counters" in
// [CoverageIDsInfo.MaxCounterID], see [CoverageIDsInfo.HasCounters] to tell them apart.
const CounterZero CounterID = 0

// ExpressionID identifies a coverage expression combining counters.
type ExpressionID uint32

// CoverageKind is a payload of a coverage marker statement.
type CoverageKind interface {
	fmt.Stringer
	isCoverageKind()
}

// CounterIncrement marks a point where the counter ID must be incremented.
type CounterIncrement struct {
	ID CounterID
}

// ExpressionUsed marks a point where the expression ID value is observed.
type ExpressionUsed struct {
	ID ExpressionID
}

// SpanMarker is a placeholder keeping a span alive until counters get assigned.
type SpanMarker struct{}

// BlockMarker binds a basic block to a coverage graph node ID.
type BlockMarker struct {
	ID uint32
}

func (k CounterIncrement) String() string { return fmt.Sprintf("CounterIncrement(%d)", k.ID) }
func (k ExpressionUsed) String() string   { return fmt.Sprintf("ExpressionUsed(%d)", k.ID) }
func (SpanMarker) String() string         { return "SpanMarker" }
func (k BlockMarker) String() string      { return fmt.Sprintf("BlockMarker(%d)", k.ID) }

func (CounterIncrement) isCoverageKind() {}
func (ExpressionUsed) isCoverageKind()   {}
func (SpanMarker) isCoverageKind()       {}
func (BlockMarker) isCoverageKind()      {}

// CoverageIDsInfo summarizes coverage IDs a function body uses on its own.
type CoverageIDsInfo struct {
	// MaxCounterID is the highest counter ID seen, CounterZero when there were none.
	MaxCounterID CounterID

	// HasCounters is set if at least one counter increment was seen.
	HasCounters bool
}

// NumCounters returns how many physical counters the function needs.
func (i CoverageIDsInfo) NumCounters() uint32 {
	if !i.HasCounters {
		return 0
	}

	return uint32(i.MaxCounterID) + 1
}

func (i CoverageIDsInfo) String() string {
	return fmt.Sprintf("max_counter_id=%d num_counters=%d", i.MaxCounterID, i.NumCounters())
}
