package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/formlogic/internal/journal"
	"github.com/roach88/formlogic/internal/submission"
	"github.com/roach88/formlogic/internal/testutil"
	"github.com/roach88/formlogic/internal/validate"
)

// Harness runs one scenario with a pinned clock and sequential entry ids.
type Harness struct {
	journal   *journal.Store
	processor *submission.Processor
	clock     *testutil.FixedClock
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
//
// Execution flow:
// 1. Resolve the form
// 2. Decide every submission and journal the decision
// 3. Check each decision against its expect clause
// 4. Replay the journal and fail on any mismatch
//
// A returned error means the scenario could not run at all; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	f, err := scenario.LoadForm()
	if err != nil {
		return nil, fmt.Errorf("failed to load form: %w", err)
	}

	var now time.Time
	if scenario.Now != "" {
		if now, err = time.Parse(time.RFC3339, scenario.Now); err != nil {
			return nil, fmt.Errorf("invalid now: %w", err)
		}
	}

	js, err := journal.Open(":memory:", journal.WithIDGenerator(testutil.NewSequentialIDs(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer js.Close()

	clock := testutil.NewFixedClock(now)
	quiet := submission.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	processor := submission.New(quiet, submission.WithValidator(validate.New(validate.WithClock(clock.Now))))
	h := &Harness{journal: js, processor: processor, clock: clock}

	ctx := context.Background()
	result := NewResult()
	result.FormID = f.ID

	for i, sub := range scenario.Submissions {
		responses, err := decodeResponses(sub.Responses)
		if err != nil {
			return nil, fmt.Errorf("submissions[%d] (%s): %w", i, sub.Name, err)
		}

		d := h.processor.Decide(f, responses)
		entry, err := journal.NewEntry(f, responses, d, h.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("submissions[%d] (%s): %w", i, sub.Name, err)
		}
		entry, err = h.journal.Record(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("submissions[%d] (%s): %w", i, sub.Name, err)
		}

		result.Submissions = append(result.Submissions, SubmissionResult{
			Name:     sub.Name,
			EntryID:  entry.ID,
			Decision: d,
		})
		for _, msg := range CheckExpect(sub.Name, sub.Expect, d) {
			result.AddError(msg)
		}
	}

	replay, err := journal.Replay(ctx, h.journal, journal.AtDecisionTime(quiet))
	if err != nil {
		return nil, fmt.Errorf("failed to replay journal: %w", err)
	}
	for _, m := range replay.Mismatches {
		result.AddError(fmt.Sprintf("replay of %s: %s", m.EntryID, m.Reason))
	}
	return result, nil
}
