package agent

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"simopsbot/internal/adapter/tools/simtools"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/fault"
	"simopsbot/internal/domain/journal"
)

// scriptedProposers replays the same replies for every seed. The last reply
// repeats once the script runs out.
type scriptedProposers struct {
	replies []string
	err     error
}

func (s scriptedProposers) NewProposer(int64) ports.Proposer {
	return &scriptedProposer{replies: s.replies, err: s.err}
}

type scriptedProposer struct {
	replies []string
	err     error
	calls   int
}

func (p *scriptedProposer) Propose(context.Context, ports.ProposalContext) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	i := min(p.calls, len(p.replies)-1)
	p.calls++
	return p.replies[i], nil
}

type collectSink struct {
	events []journal.Event
	resets []string
}

func (s *collectSink) Append(_ context.Context, e journal.Event) error {
	s.events = append(s.events, e)
	return nil
}

func (s *collectSink) Reset(_ context.Context, runID string) error {
	s.resets = append(s.resets, runID)
	s.events = nil
	return nil
}

type failingSink struct{}

func (failingSink) Append(context.Context, journal.Event) error {
	return errors.New("disk full")
}

type stubFiles struct {
	created []string
	file    *stubFile
}

func (f *stubFiles) Create(name string) (ports.JournalFile, error) {
	f.created = append(f.created, name)
	f.file = &stubFile{path: "/tmp/runs/" + name}
	return f.file, nil
}

type stubFile struct {
	collectSink
	path   string
	closed bool
}

func (f *stubFile) Path() string { return f.path }
func (f *stubFile) Close() error {
	f.closed = true
	return nil
}

type stubRuns struct {
	saved []ports.RunRecord
}

func (r *stubRuns) Save(_ context.Context, rec ports.RunRecord) error {
	r.saved = append(r.saved, rec)
	return nil
}

func (r *stubRuns) GetByRunID(context.Context, string) (ports.RunRecord, error) {
	return ports.RunRecord{}, ports.ErrNotFound
}

func (r *stubRuns) List(context.Context, int) ([]ports.RunRecord, error) {
	return r.saved, nil
}

type countingMetrics struct {
	runs        int
	blocks      []string
	invalid     int
	toolErrors  int
	lastStatus  string
	lastProfile string
}

func (m *countingMetrics) RecordRun(profile, status string, _, _ int) {
	m.runs++
	m.lastProfile = profile
	m.lastStatus = status
}
func (m *countingMetrics) RecordPolicyBlock(reason string) { m.blocks = append(m.blocks, reason) }
func (m *countingMetrics) RecordValidationFailure()        { m.invalid++ }
func (m *countingMetrics) RecordToolError(string)          { m.toolErrors++ }

func quietEnvironments() simtools.Factory {
	return simtools.Factory{Faults: fault.NoFaults()}
}

func eventsOfKind(events []journal.Event, kind journal.Kind) []journal.Event {
	var out []journal.Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

const (
	proposeAPIMetrics = `{"type":"OBSERVE_METRICS","service":"api","window_minutes":5}`
	proposeRollback   = `{"type":"ACT_ROLLBACK","service":"api","version":"v1"}`
	proposeDBRollback = `{"type":"ACT_ROLLBACK","service":"db","version":"v1"}`
	proposeAskUser    = `{"type":"ASK_USER","question":"need a human"}`
)

type recordingTx struct {
	calls int
}

func (t *recordingTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// slowStore is a shared journal store that yields on every append, so runs
// writing the same journal concurrently interleave.
type slowStore struct {
	mu     sync.Mutex
	events map[string][]journal.Event
}

func newSlowStore() *slowStore {
	return &slowStore{events: make(map[string][]journal.Event)}
}

func (s *slowStore) Append(_ context.Context, e journal.Event) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.RunID] = append(s.events[e.RunID], e)
	return nil
}

func (s *slowStore) Reset(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, runID)
	return nil
}

func (s *slowStore) stored(runID string) []journal.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events[runID])
}
