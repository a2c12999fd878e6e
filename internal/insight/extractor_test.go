package insight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type fakeCapability struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *fakeCapability) Complete(ctx context.Context, instruction, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "{}", nil
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r, nil
}

const fireResponse = `{
	"location": ["12 Oak Street", "third floor"],
	"incident": {"incident_type": "fire", "severity": "high"},
	"additional_info": ["Neighbor trapped on the third floor"],
	"new_information_found": true,
	"summary": "Fire at 12 Oak Street, third floor, with a trapped neighbor."
}`

func TestProcess_FireScenario(t *testing.T) {
	cap := &fakeCapability{responses: []string{fireResponse}}
	e := NewExtractor(cap)
	ctx := context.Background()

	rec := e.Process(ctx, "+15550100", "There's a fire at 12 Oak Street, third floor, my neighbor is trapped")
	if rec.Incident.Type != "fire" {
		t.Fatalf("expected incident_type fire, got %q", rec.Incident.Type)
	}
	found := false
	for _, l := range rec.Location {
		if strings.Contains(l, "Oak Street") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an Oak Street location entry, got %v", rec.Location)
	}
	if len(rec.AdditionalInfo) != 1 || !strings.Contains(strings.ToLower(rec.AdditionalInfo[0]), "trapped") {
		t.Fatalf("expected a trapped-person note, got %v", rec.AdditionalInfo)
	}

	// The same utterance arriving twice must not duplicate entries.
	rec = e.Process(ctx, "+15550100", "There's a fire at 12 Oak Street, third floor, my neighbor is trapped")
	count := 0
	for _, l := range rec.Location {
		if strings.Contains(l, "Oak Street") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Oak Street entry, got %d (%v)", count, rec.Location)
	}
	if len(rec.AdditionalInfo) != 1 {
		t.Fatalf("expected additional_info not to duplicate, got %v", rec.AdditionalInfo)
	}
}

func TestProcess_FencedResponse(t *testing.T) {
	cap := &fakeCapability{responses: []string{"```json\n" + fireResponse + "\n```"}}
	e := NewExtractor(cap)
	rec := e.Process(context.Background(), "k", "fire at oak street")
	if rec.Incident.Type != "fire" {
		t.Fatalf("expected fenced payload to parse, got %+v", rec)
	}
}

func TestProcess_ParseFailureKeepsPriorRecord(t *testing.T) {
	cap := &fakeCapability{responses: []string{fireResponse, "this is not json"}}
	e := NewExtractor(cap)
	ctx := context.Background()
	first := e.Process(ctx, "k", "fire at oak street")
	second := e.Process(ctx, "k", "garbled")
	if second.Incident.Type != first.Incident.Type || len(second.Location) != len(first.Location) {
		t.Fatalf("parse failure must keep prior record: %+v vs %+v", first, second)
	}
}

func TestProcess_CapabilityErrorKeepsPriorRecord(t *testing.T) {
	cap := &fakeCapability{err: errors.New("backend down")}
	e := NewExtractor(cap)
	rec := e.Process(context.Background(), "k", "anything")
	if len(rec.Location) != 0 || rec.Incident.Type != "" {
		t.Fatalf("expected empty record on capability failure, got %+v", rec)
	}
}

func TestSetCallerName_InjectedOnce(t *testing.T) {
	cap := &fakeCapability{responses: []string{"{}", "{}"}}
	e := NewExtractor(cap)
	e.SetCallerName("k", "Jane Smith")
	ctx := context.Background()
	e.Process(ctx, "k", "first")
	rec := e.Process(ctx, "k", "second")
	count := 0
	for _, p := range rec.Persons {
		if p.Name == "Jane Smith" && p.Role == "caller" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected caller name injected exactly once, got %d in %v", count, rec.Persons)
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := StripFence(tc.in); got != tc.want {
			t.Fatalf("StripFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDrop_ForgetsSession(t *testing.T) {
	cap := &fakeCapability{responses: []string{fireResponse}}
	e := NewExtractor(cap)
	e.Process(context.Background(), "k", "fire")
	e.Drop("k")
	rec := e.Record("k")
	if rec.Incident.Type != "" {
		t.Fatalf("expected fresh record after drop, got %+v", rec)
	}
}
