// Package eventdb maintains per-kind ordered vectors of the trace's
// side-channel event log (output, exceptions, rr/runtime-tracing markers)
// and projects them into the paginated/filterable table shape `ct/updateTable`
// returns — spec §4.7.
package eventdb

import (
	"sort"
	"strconv"
	"strings"

	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/traceio"
)

// Record is one registered event, carrying its assigned EventId alongside
// the payload read off the trace.
type Record struct {
	ID      ids.EventId
	Payload traceio.EventPayload
}

// EventDb holds events grouped by EventKind, in append order within each
// group.
type EventDb struct {
	byKind map[string][]Record
	all    []Record
}

// New creates an empty EventDb.
func New() *EventDb {
	return &EventDb{byKind: make(map[string][]Record)}
}

// RegisterEvents appends events to kind's vector, assigning each the next
// EventId in global append order — spec §4.7's `register_events(kind,
// events)`.
func (db *EventDb) RegisterEvents(kind string, events []traceio.EventPayload) []ids.EventId {
	assigned := make([]ids.EventId, 0, len(events))
	for _, ev := range events {
		id := ids.EventId(len(db.all))
		rec := Record{ID: id, Payload: ev}
		db.byKind[kind] = append(db.byKind[kind], rec)
		db.all = append(db.all, rec)
		assigned = append(assigned, id)
	}
	return assigned
}

// Kinds returns the event kinds currently registered, sorted for
// deterministic iteration.
func (db *EventDb) Kinds() []string {
	out := make([]string, 0, len(db.byKind))
	for k := range db.byKind {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Table is the tabular projection `ct/updateTable` returns.
type Table struct {
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
	TotalCount int        `json:"totalCount"`
	StartIndex int        `json:"startIndex"`
}

// TableArgs selects, filters, paginates and optionally groups a projection
// over one kind's events.
type TableArgs struct {
	Kind        string
	StartIndex  int
	PageSize    int    // 0 means "no limit"
	ContentLike string // case-insensitive substring filter over Content
	GroupByPath bool
}

var tableColumns = []string{"eventIndex", "eventKind", "content", "highLevelPath", "highLevelLine"}

// UpdateTableToJSON builds the deterministic tabular projection for args —
// spec §4.7: "deterministic under the same filter/sort".
func (db *EventDb) UpdateTableToJSON(args TableArgs) Table {
	records := db.byKind[args.Kind]

	var filtered []Record
	for _, r := range records {
		if args.ContentLike != "" && !strings.Contains(strings.ToLower(r.Payload.Content), strings.ToLower(args.ContentLike)) {
			continue
		}
		filtered = append(filtered, r)
	}

	if args.GroupByPath {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Payload.HighLevelPath < filtered[j].Payload.HighLevelPath
		})
	}

	total := len(filtered)
	start := args.StartIndex
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if args.PageSize > 0 && start+args.PageSize < end {
		end = start + args.PageSize
	}

	page := filtered[start:end]
	rows := make([][]string, 0, len(page))
	for _, r := range page {
		p := r.Payload
		rows = append(rows, []string{
			strconv.FormatInt(p.EventIndex, 10),
			p.EventKind,
			p.Content,
			p.HighLevelPath,
			strconv.FormatInt(p.HighLevelLine, 10),
		})
	}

	return Table{
		Columns:    tableColumns,
		Rows:       rows,
		TotalCount: total,
		StartIndex: start,
	}
}
