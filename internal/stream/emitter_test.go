package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeFrames(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, frame := range strings.Split(strings.TrimSpace(body), "\n\n") {
		payload := strings.TrimPrefix(frame, "data: ")
		var event map[string]any
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			t.Fatalf("frame %q: %v", frame, err)
		}
		events = append(events, event)
	}
	return events
}

func TestEmitterEventSequence(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	em := NewEmitter(w, "repo", "total_repos", "repo_data")

	if err := em.Start(2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := em.Progress("api"); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if err := em.Data(map[string]string{"repository": "api"}); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if err := em.Progress("web"); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if err := em.Done(); err != nil {
		t.Fatalf("Done: %v", err)
	}

	events := decodeFrames(t, rec.Body.String())
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}

	if events[0]["type"] != "start" || events[0]["total_repos"] != float64(2) {
		t.Errorf("unexpected start event %v", events[0])
	}
	if events[1]["type"] != "progress" || events[1]["repo"] != "api" || events[1]["processed"] != float64(1) {
		t.Errorf("unexpected first progress event %v", events[1])
	}
	if events[2]["type"] != "data" {
		t.Errorf("unexpected data event %v", events[2])
	}
	if data, ok := events[2]["repo_data"].(map[string]any); !ok || data["repository"] != "api" {
		t.Errorf("unexpected data payload %v", events[2]["repo_data"])
	}
	if events[3]["processed"] != float64(2) || events[3]["repo"] != "web" {
		t.Errorf("unexpected second progress event %v", events[3])
	}
	if events[4]["type"] != "done" {
		t.Errorf("expected done last, got %v", events[4])
	}
}

func TestEmitterProcessedCountIsMonotonic(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	em := NewEmitter(w, "member", "total_members", "member_data")

	const n = 7
	for i := 0; i < n; i++ {
		if err := em.Progress("someone"); err != nil {
			t.Fatalf("Progress: %v", err)
		}
	}

	events := decodeFrames(t, rec.Body.String())
	for i, event := range events {
		if event["processed"] != float64(i+1) {
			t.Fatalf("event %d: processed = %v, want %d", i, event["processed"], i+1)
		}
	}
}

func TestEmitterErrorEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	em := NewEmitter(w, "team", "total_teams", "team_data")

	if err := em.Error("Invalid GitHub token."); err != nil {
		t.Fatalf("Error: %v", err)
	}

	events := decodeFrames(t, rec.Body.String())
	if len(events) != 1 {
		t.Fatalf("expected a single event, got %d", len(events))
	}
	if events[0]["type"] != "error" || events[0]["detail"] != "Invalid GitHub token." {
		t.Fatalf("unexpected error event %v", events[0])
	}
}
