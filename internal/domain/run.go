package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// RunPhase is a state in the per-match validation state machine.
type RunPhase string

const (
	PhaseCollecting  RunPhase = "collecting"
	PhaseComparing   RunPhase = "comparing"
	PhaseAggregating RunPhase = "aggregating"
	PhasePersisting  RunPhase = "persisting"
	PhaseDone        RunPhase = "done"
	PhaseFailed      RunPhase = "failed"
)

// Terminal reports whether no further transitions are possible.
func (p RunPhase) Terminal() bool { return p == PhaseDone || p == PhaseFailed }

// next lists the single forward transition from each non-terminal phase.
// PhaseFailed is reachable from any non-terminal phase and is handled
// separately.
var next = map[RunPhase]RunPhase{
	PhaseCollecting:  PhaseComparing,
	PhaseComparing:   PhaseAggregating,
	PhaseAggregating: PhasePersisting,
	PhasePersisting:  PhaseDone,
}

// RunTracker guards the phase transitions of one run. It is safe for
// concurrent use.
type RunTracker struct {
	mu      sync.Mutex
	phase   RunPhase
	reason  string
	history []RunPhase
}

// NewRunTracker returns a tracker in the collecting phase.
func NewRunTracker() *RunTracker {
	return &RunTracker{phase: PhaseCollecting, history: []RunPhase{PhaseCollecting}}
}

// Phase returns the current phase.
func (t *RunTracker) Phase() RunPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// History returns every phase entered so far, in order.
func (t *RunTracker) History() []RunPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.history)
}

// FailureReason returns the reason recorded by Fail.
func (t *RunTracker) FailureReason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Advance moves to to, which must be the forward successor of the current phase.
func (t *RunTracker) Advance(to RunPhase) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase.Terminal() {
		return fmt.Errorf("run already %s: cannot enter %s", t.phase, to)
	}
	if next[t.phase] != to {
		return fmt.Errorf("illegal run transition %s -> %s", t.phase, to)
	}
	t.phase = to
	t.history = append(t.history, to)
	return nil
}

// Fail moves the run into the failed terminal phase.
func (t *RunTracker) Fail(reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase.Terminal() {
		return fmt.Errorf("run already %s: cannot fail", t.phase)
	}
	t.phase = PhaseFailed
	t.reason = reason
	t.history = append(t.history, PhaseFailed)
	return nil
}

// RunStatus is the persisted terminal status of a validation run.
type RunStatus string

const (
	RunStatusDone   RunStatus = "done"
	RunStatusFailed RunStatus = "failed"
)

// ValidationRun is the idempotency record of one orchestrator run over one
// match. (MatchKey, StrategySet, RunVersion) is unique; the store assigns
// RunVersion as one more than the highest existing version.
type ValidationRun struct {
	ID          string    `json:"id"`
	MatchKey    string    `json:"match_key"`
	EventKey    string    `json:"event_key"`
	StrategySet string    `json:"strategy_set"`
	RunVersion  int       `json:"run_version"`
	InputHash   string    `json:"input_hash"`
	Status      RunStatus `json:"status"`
	Phases      []string  `json:"phases"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// StrategySetKey returns the canonical, order-independent key for a set of
// strategies.
func StrategySetKey(kinds []StrategyKind) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	slices.Sort(names)
	names = slices.Compact(names)
	return strings.Join(names, ",")
}

// ComputeInputHash generates a deterministic hash of the observations a run
// consumed, so two runs over identical inputs can be told apart from runs
// over changed data.
func ComputeInputHash(observations []Observation) string {
	keys := make([]string, 0, len(observations))
	for _, o := range observations {
		keys = append(keys, fmt.Sprintf("%s|%d|%s|%s", o.MatchKey, o.TeamNumber, o.ScouterID, o.ID))
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
