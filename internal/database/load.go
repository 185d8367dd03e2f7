package database

import (
	"fmt"
	"io"

	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/replayerr"
	"github.com/codetracer/db-backend/internal/traceio"
	"github.com/codetracer/db-backend/internal/value"
)

// Load reads metadata from dir and replays the trace's low-level event
// stream into a fresh Database. It never publishes a partially-built
// Database: on any malformed record it returns a *replayerr.Load error and
// a nil Database, per spec §4.1's failure semantics.
func Load(dir string) (*Database, []traceio.EventPayload, error) {
	meta, err := traceio.LoadMetadata(dir)
	if err != nil {
		return nil, nil, &replayerr.Load{Dir: dir, Err: err}
	}
	streamPath := traceio.EventStreamPath(dir)
	if streamPath == "" {
		return nil, nil, &replayerr.Load{Dir: dir, Err: fmt.Errorf("no trace.json or trace.bin found")}
	}
	reader, err := traceio.OpenEventStream(streamPath)
	if err != nil {
		return nil, nil, &replayerr.Load{Dir: dir, Err: err}
	}
	defer reader.Close()

	db, events, err := Postprocess(reader)
	if err != nil {
		return nil, nil, &replayerr.Load{Dir: dir, Err: err}
	}
	db.Workdir = meta.Workdir
	db.Program = meta.Program
	db.Args = meta.Args
	return db, events, nil
}

// Postprocess replays an already-open event stream into a Database,
// maintaining a "current call stack" to fill call_key on each step and to
// populate ReturnStep on pop — spec §4.1.
func Postprocess(reader traceio.Reader) (*Database, []traceio.EventPayload, error) {
	db := New()
	var events []traceio.EventPayload

	// callStack holds the key of the currently-open call at each depth;
	// callStack[0] is always the synthetic root (CallKey(0)).
	callStack := []ids.CallKey{ids.RootCall}

	pathByIndex := map[int64]ids.PathId{}
	functionByIndex := map[int64]ids.FunctionId{}
	variableByIndex := map[int64]ids.VariableId{}

	for {
		raw, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read trace record: %w", err)
		}
		payload, err := raw.Decode()
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s record: %w", raw.Kind, err)
		}

		switch p := payload.(type) {
		case traceio.PathPayload:
			id := db.internPath(p.Path)
			pathByIndex[int64(len(pathByIndex))] = id

		case traceio.FunctionPayload:
			pathID, ok := pathByIndex[p.PathIndex]
			if !ok {
				return nil, nil, fmt.Errorf("function %q references unknown path index %d", p.Name, p.PathIndex)
			}
			fn := Function{Name: p.Name, PathID: pathID, Line: p.Line, ParamNames: p.ParamNames}
			id := db.Functions.Push(fn)
			functionByIndex[int64(len(functionByIndex))] = id

		case traceio.TypePayload:
			db.Types.Push(toValueType(p))

		case traceio.VariableNamePayload:
			id := db.internVariable(p.Name)
			variableByIndex[int64(len(variableByIndex))] = id

		case traceio.StepPayload:
			pathID, ok := pathByIndex[p.PathIndex]
			if !ok {
				return nil, nil, fmt.Errorf("step references unknown path index %d", p.PathIndex)
			}
			currentCall := callStack[len(callStack)-1]
			db.Steps.Push(Step{PathID: pathID, Line: p.Line, CallKey: currentCall})

		case traceio.CallPayload:
			functionID, ok := functionByIndex[p.FunctionIndex]
			if !ok {
				return nil, nil, fmt.Errorf("call references unknown function index %d", p.FunctionIndex)
			}
			parent := callStack[len(callStack)-1]
			parentCall, _ := db.Calls.Get(parent)
			entry := db.LastStepID() + 1
			args := make([]ArgWrite, 0, len(p.Args))
			for _, a := range p.Args {
				args = append(args, ArgWrite{Name: a.Name, Value: a.Value})
			}
			newKey := db.Calls.Push(Call{
				FunctionID: functionID,
				ParentKey:  parent,
				Depth:      parentCall.Depth + 1,
				EntryStep:  entry,
				Args:       args,
			})
			callStack = append(callStack, newKey)

		case traceio.ReturnPayload:
			if len(callStack) <= 1 {
				return nil, nil, fmt.Errorf("return with no open call")
			}
			topKey := callStack[len(callStack)-1]
			top, _ := db.Calls.Get(topKey)
			top.ReturnStep = db.LastStepID()
			top.HasReturn = true
			db.Calls.Set(topKey, top)
			callStack = callStack[:len(callStack)-1]

		case traceio.VariableWritePayload:
			variableID, ok := variableByIndex[p.VariableIndex]
			if !ok {
				return nil, nil, fmt.Errorf("variable write references unknown variable index %d", p.VariableIndex)
			}
			stepID := db.LastStepID()
			if stepID < 0 {
				return nil, nil, fmt.Errorf("variable write before any step")
			}
			w := VariableWrite{StepID: stepID, VariableID: variableID, Value: p.Value}
			db.writesByStep[stepID] = append(db.writesByStep[stepID], w)

		case traceio.EventPayload:
			events = append(events, p)
		}
	}

	return db, events, nil
}

func toValueType(p traceio.TypePayload) value.Type {
	return value.Type{Kind: p.Kind, LangType: p.LangType, CType: p.CType, Labels: p.Labels}
}
