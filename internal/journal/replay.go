package journal

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/submission"
	"github.com/roach88/formlogic/internal/validate"
)

// Mismatch reasons reported by Replay.
const (
	ReasonUndecodable      = "undecodable"
	ReasonDigestChanged    = "digest changed"
	ReasonNondeterministic = "nondeterministic"
	ReasonDecisionChanged  = "decision changed"
)

// Mismatch is a journal entry whose replay did not reproduce its
// recorded decision.
type Mismatch struct {
	EntryID string              `json:"entry_id"`
	Seq     int64               `json:"seq"`
	Reason  string              `json:"reason"`
	Want    submission.Decision `json:"want"`
	Got     submission.Decision `json:"got"`
	Detail  string              `json:"detail,omitempty"`
}

// ReplayResult summarizes a replay run.
type ReplayResult struct {
	Checked    int        `json:"checked"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether every entry replayed to its recorded decision.
func (r *ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// ProcessorFunc returns the processor used to re-decide an entry that was
// originally decided at the given time.
type ProcessorFunc func(decidedAt time.Time) *submission.Processor

// AtDecisionTime builds processors whose validator clock is pinned to
// each entry's DecidedAt, so date restrictions replay as they were
// applied. Entries without a recorded time use the wall clock.
func AtDecisionTime(opts ...submission.Option) ProcessorFunc {
	return func(decidedAt time.Time) *submission.Processor {
		if decidedAt.IsZero() {
			return submission.New(opts...)
		}
		clock := validate.WithClock(func() time.Time { return decidedAt })
		return submission.New(append(slices.Clone(opts), submission.WithValidator(validate.New(clock)))...)
	}
}

// Replay re-evaluates every entry in seq order. Each entry is decided
// twice; both runs must agree with each other and with the recorded
// decision, and the stored payload must still hash to the recorded
// digest.
func Replay(ctx context.Context, s *Store, processorFor ProcessorFunc) (*ReplayResult, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	result := &ReplayResult{Mismatches: []Mismatch{}}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Checked++
		if m, bad := replayEntry(e, processorFor(e.DecidedAt)); bad {
			result.Mismatches = append(result.Mismatches, m)
		}
	}
	return result, nil
}

func replayEntry(e Entry, p *submission.Processor) (Mismatch, bool) {
	m := Mismatch{EntryID: e.ID, Seq: e.Seq, Want: e.Decision}

	f, rs, err := e.Decode()
	if err != nil {
		m.Reason = ReasonUndecodable
		m.Detail = err.Error()
		return m, true
	}

	digest, err := form.SubmissionDigest(f, rs)
	if err != nil {
		m.Reason = ReasonUndecodable
		m.Detail = err.Error()
		return m, true
	}
	if digest != e.Digest {
		m.Reason = ReasonDigestChanged
		m.Detail = fmt.Sprintf("recorded %s, computed %s", e.Digest, digest)
		return m, true
	}

	first := p.Decide(f, rs)
	second := p.Decide(f, rs)
	m.Got = first
	switch {
	case !first.Equal(second):
		m.Reason = ReasonNondeterministic
		return m, true
	case !first.Equal(e.Decision):
		m.Reason = ReasonDecisionChanged
		return m, true
	}
	return Mismatch{}, false
}
