package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/submission"
	"github.com/roach88/formlogic/internal/testutil"
)

const ageForm = `{
  "_id": "age-check",
  "title": "Age check",
  "form_fields": [
    {"_id": "age", "title": "Age", "required": true, "fieldType": "number"},
    {"_id": "guardian", "title": "Guardian", "required": true, "fieldType": "textfield"}
  ],
  "form_logics": [
    {
      "_id": "minor",
      "logicType": "showFields",
      "conditions": [{"field": "age", "state": "is less than or equal to", "value": 17}],
      "show": ["guardian"]
    },
    {
      "_id": "too-young",
      "logicType": "preventSubmit",
      "conditions": [{"field": "age", "state": "is less than or equal to", "value": 12}],
      "preventSubmitMessage": "Too young"
    }
  ]
}`

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"), WithIDGenerator(testutil.NewSequentialIDs("e")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func decided(t *testing.T, responses string) Entry {
	t.Helper()
	f, err := form.Decode([]byte(ageForm))
	require.NoError(t, err)
	rs, err := form.DecodeResponses([]byte(responses))
	require.NoError(t, err)
	e, err := NewEntry(f, rs, submission.New().Decide(f, rs), testutil.DefaultNow)
	require.NoError(t, err)
	return e
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "1",
	}
	for name, value := range want {
		got, err := s.pragmaValue(name)
		require.NoError(t, err, name)
		assert.Equal(t, value, got, name)
	}
}

func TestOpen_MigratesOldJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("DROP INDEX idx_entries_form")
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_entries_form'").Scan(&n))
	assert.Equal(t, 1, n)
	v, err := s.pragmaValue("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "journal.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestNewEntry(t *testing.T) {
	e := decided(t, `[
		{"_id": "age", "fieldType": "number", "answer": "30"},
		{"_id": "guardian", "fieldType": "textfield", "answer": ""}
	]`)

	assert.Equal(t, "age-check", e.FormID)
	assert.Len(t, e.FormDigest, 64)
	assert.Len(t, e.Digest, 64)
	assert.NotEqual(t, e.FormDigest, e.Digest)
	assert.True(t, e.Decision.Accepted)
	assert.Equal(t, []string{"age"}, e.Decision.Visible)
	assert.Equal(t, testutil.DefaultNow, e.DecidedAt)

	f, rs, err := e.Decode()
	require.NoError(t, err)
	assert.Equal(t, "age-check", f.ID)
	require.Len(t, rs, 2)
	assert.Equal(t, form.TextAnswer{Text: "30"}, rs[0].Answer)
}

func TestRecordAssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Record(ctx, decided(t, `[
		{"_id": "age", "fieldType": "number", "answer": "30"},
		{"_id": "guardian", "fieldType": "textfield", "answer": ""}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "e-1", first.ID)
	assert.Equal(t, int64(1), first.Seq)

	second, err := s.Record(ctx, decided(t, `[
		{"_id": "age", "fieldType": "number", "answer": "10"},
		{"_id": "guardian", "fieldType": "textfield", "answer": "Mum"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "e-2", second.ID)
	assert.Equal(t, int64(2), second.Seq)
}

func TestRecordDuplicateIDIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := decided(t, `[
		{"_id": "age", "fieldType": "number", "answer": "30"},
		{"_id": "guardian", "fieldType": "textfield", "answer": ""}
	]`)
	e.ID = "fixed"

	stored, err := s.Record(ctx, e)
	require.NoError(t, err)
	again, err := s.Record(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, stored.Seq, again.Seq)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	blocked, err := s.Record(ctx, decided(t, `[
		{"_id": "age", "fieldType": "number", "answer": "10"},
		{"_id": "guardian", "fieldType": "textfield", "answer": "Mum"}
	]`))
	require.NoError(t, err)
	_, err = s.Record(ctx, decided(t, `[
		{"_id": "age", "fieldType": "number", "answer": "15"},
		{"_id": "guardian", "fieldType": "textfield", "answer": "Dad"}
	]`))
	require.NoError(t, err)

	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Equal(t, "too-young", entries[0].Decision.Blocking)
	assert.Equal(t, submission.ErrCodePrevented, entries[0].Decision.ErrorCode)
	assert.True(t, entries[1].Decision.Accepted)
	assert.Equal(t, []string{"age", "guardian"}, entries[1].Decision.Visible)

	got, err := s.Get(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, blocked.Digest, got.Digest)
	assert.True(t, testutil.DefaultNow.Equal(got.DecidedAt))
	assert.JSONEq(t, string(blocked.Responses), string(got.Responses))

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	byForm, err := s.ListForm(ctx, "age-check")
	require.NoError(t, err)
	assert.Len(t, byForm, 2)
	none, err := s.ListForm(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	p := AtDecisionTime()

	seed := func(t *testing.T) *Store {
		s := createTestStore(t)
		for _, rs := range []string{
			`[{"_id": "age", "fieldType": "number", "answer": "30"}, {"_id": "guardian", "fieldType": "textfield", "answer": ""}]`,
			`[{"_id": "age", "fieldType": "number", "answer": "15"}, {"_id": "guardian", "fieldType": "textfield", "answer": ""}]`,
			`[{"_id": "age", "fieldType": "number"}]`,
		} {
			_, err := s.Record(ctx, decided(t, rs))
			require.NoError(t, err)
		}
		return s
	}

	t.Run("clean journal", func(t *testing.T) {
		s := seed(t)
		result, err := Replay(ctx, s, p)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Checked)
		assert.True(t, result.OK())
		assert.Empty(t, result.Mismatches)
	})

	t.Run("decision changed", func(t *testing.T) {
		s := seed(t)
		_, err := s.db.Exec(`UPDATE entries SET decision_json = ? WHERE id = 'e-1'`,
			`{"accepted": false, "visible": ["age"], "error_code": "E204"}`)
		require.NoError(t, err)

		result, err := Replay(ctx, s, p)
		require.NoError(t, err)
		require.Len(t, result.Mismatches, 1)
		m := result.Mismatches[0]
		assert.Equal(t, "e-1", m.EntryID)
		assert.Equal(t, ReasonDecisionChanged, m.Reason)
		assert.True(t, m.Got.Accepted)
		assert.False(t, m.Want.Accepted)
	})

	t.Run("digest changed", func(t *testing.T) {
		s := seed(t)
		_, err := s.db.Exec(`UPDATE entries SET responses_json = ? WHERE id = 'e-2'`,
			`[{"_id": "age", "fieldType": "number", "answer": "16"}, {"_id": "guardian", "fieldType": "textfield", "answer": ""}]`)
		require.NoError(t, err)

		result, err := Replay(ctx, s, p)
		require.NoError(t, err)
		require.Len(t, result.Mismatches, 1)
		assert.Equal(t, ReasonDigestChanged, result.Mismatches[0].Reason)
	})

	t.Run("undecodable", func(t *testing.T) {
		s := seed(t)
		_, err := s.db.Exec(`UPDATE entries SET form_json = '{' WHERE id = 'e-3'`)
		require.NoError(t, err)

		result, err := Replay(ctx, s, p)
		require.NoError(t, err)
		require.Len(t, result.Mismatches, 1)
		assert.Equal(t, ReasonUndecodable, result.Mismatches[0].Reason)
		assert.Equal(t, int64(3), result.Mismatches[0].Seq)
	})

	t.Run("cancelled", func(t *testing.T) {
		s := seed(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Replay(cctx, s, p)
		assert.Error(t, err)
	})
}

const deadlineForm = `{
  "_id": "deadline",
  "form_fields": [
    {"_id": "d", "fieldType": "date", "dateValidation": {"selectedDateValidation": "Disallow future dates"}}
  ]
}`

func TestReplay_PinsClockToDecisionTime(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	decidedAt := time.Date(2090, 1, 10, 4, 0, 0, 0, time.UTC)
	f, err := form.Decode([]byte(deadlineForm))
	require.NoError(t, err)
	rs, err := form.DecodeResponses([]byte(`[{"_id": "d", "fieldType": "date", "answer": "10 Jan 2090"}]`))
	require.NoError(t, err)

	p := AtDecisionTime()(decidedAt)
	d := p.Decide(f, rs)
	require.True(t, d.Accepted, d.Message)

	e, err := NewEntry(f, rs, d, decidedAt)
	require.NoError(t, err)
	_, err = s.Record(ctx, e)
	require.NoError(t, err)

	result, err := Replay(ctx, s, AtDecisionTime())
	require.NoError(t, err)
	assert.True(t, result.OK(), "mismatches: %v", result.Mismatches)

	// Against the wall clock the answer lies in the future.
	wall := func(time.Time) *submission.Processor { return submission.New() }
	result, err = Replay(ctx, s, wall)
	require.NoError(t, err)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, ReasonDecisionChanged, result.Mismatches[0].Reason)
	assert.Equal(t, submission.ErrCodeValidation, result.Mismatches[0].Got.ErrorCode)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
