package steplog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"refengine/internal/state"
)

func TestLogger_RecordsInOrder(t *testing.T) {
	lg := New()
	lg.LogState(0, state.State{1, 2})
	lg.LogState(1, state.State{1.05, 2.1})

	recs := lg.Records()
	if len(recs) != 2 || lg.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Depth != 0 || recs[1].Depth != 1 {
		t.Errorf("unexpected depths: %d, %d", recs[0].Depth, recs[1].Depth)
	}
	if !recs[1].State.Equal(state.State{1.05, 2.1}) {
		t.Errorf("unexpected state: %v", recs[1].State)
	}
	if recs[0].Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestLogger_CopiesState(t *testing.T) {
	lg := New()
	s := state.State{1, 2}
	lg.LogState(0, s)
	s[0] = 9

	if lg.Records()[0].State[0] != 1 {
		t.Error("LogState should copy its input")
	}
	lg.Records()[0].State[1] = 9
	if lg.Records()[0].State[1] != 2 {
		t.Error("Records should return copies")
	}
}

func TestLogger_WithSlog(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	lg := New(WithSlog(l))
	lg.LogState(3, state.State{1, 2})

	out := buf.String()
	if !strings.Contains(out, "msg=step") || !strings.Contains(out, "depth=3") {
		t.Errorf("unexpected slog output: %q", out)
	}
	if !strings.Contains(out, `state="[1.0, 2.0]"`) {
		t.Errorf("state should be logged in canonical form: %q", out)
	}
}

func TestLogger_WithEmitter(t *testing.T) {
	ch := make(chan Record, 1)
	lg := New(WithEmitter(&ChanEmitter{Ch: ch}))

	lg.LogState(0, state.State{1})
	lg.LogState(1, state.State{2}) // dropped: channel full

	select {
	case r := <-ch:
		if r.Depth != 0 {
			t.Errorf("expected depth 0, got %d", r.Depth)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a record on the channel")
	}
	select {
	case r := <-ch:
		t.Errorf("expected second record to be dropped, got %+v", r)
	default:
	}
	if lg.Len() != 2 {
		t.Errorf("in-memory log must keep dropped records, got %d", lg.Len())
	}
}
