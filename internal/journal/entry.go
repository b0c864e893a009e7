package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/submission"
)

// Entry is one journaled submission decision.
type Entry struct {
	ID         string
	Seq        int64
	FormID     string
	FormDigest string
	Digest     string
	Form       json.RawMessage
	Responses  json.RawMessage
	Decision   submission.Decision
	DecidedAt  time.Time
}

// NewEntry captures a form, its responses and the decision reached at
// decidedAt. The id and seq are assigned by Record.
func NewEntry(f *form.Form, responses []form.Response, d submission.Decision, decidedAt time.Time) (Entry, error) {
	formDigest, err := form.FormDigest(f)
	if err != nil {
		return Entry{}, err
	}
	digest, err := form.SubmissionDigest(f, responses)
	if err != nil {
		return Entry{}, err
	}
	formJSON, err := json.Marshal(f)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal form: %w", err)
	}
	if responses == nil {
		responses = []form.Response{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal responses: %w", err)
	}
	return Entry{
		FormID:     f.ID,
		FormDigest: formDigest,
		Digest:     digest,
		Form:       formJSON,
		Responses:  responsesJSON,
		Decision:   d,
		DecidedAt:  decidedAt.UTC(),
	}, nil
}

// Decode parses the entry's stored form and responses.
func (e Entry) Decode() (*form.Form, []form.Response, error) {
	f, err := form.Decode(e.Form)
	if err != nil {
		return nil, nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	rs, err := form.DecodeResponses(e.Responses)
	if err != nil {
		return nil, nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return f, rs, nil
}

// Record appends an entry and returns it with its id and seq filled in.
// An entry without an id gets one from the store's generator. Recording
// an id that already exists is a no-op that returns the stored seq.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = s.ids.Generate()
	}
	decisionJSON, err := json.Marshal(e.Decision)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal decision: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries
			(id, seq, form_id, form_digest, digest, form_json, responses_json, decision_json, error_code, decided_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entries), ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.FormID,
		e.FormDigest,
		e.Digest,
		string(e.Form),
		string(e.Responses),
		string(decisionJSON),
		string(e.Decision.ErrorCode),
		formatTime(e.DecidedAt),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("write entry: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT seq FROM entries WHERE id = ?`, e.ID).Scan(&e.Seq); err != nil {
		return Entry{}, fmt.Errorf("read entry seq: %w", err)
	}
	return e, nil
}

// Get retrieves one entry by id. Returns sql.ErrNoRows if not found.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, form_id, form_digest, digest, form_json, responses_json, decision_json, decided_at
		FROM entries
		WHERE id = ?
	`, id)
	return scanEntry(row)
}

// List returns every entry ordered by seq. Returns an empty slice (not
// nil) when the journal is empty.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, seq, form_id, form_digest, digest, form_json, responses_json, decision_json, decided_at
		FROM entries
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ListForm returns the entries for one form id ordered by seq.
func (s *Store) ListForm(ctx context.Context, formID string) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, seq, form_id, form_digest, digest, form_json, responses_json, decision_json, decided_at
		FROM entries
		WHERE form_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, formID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var formJSON, responsesJSON, decision, decidedAt string
	err := row.Scan(&e.ID, &e.Seq, &e.FormID, &e.FormDigest, &e.Digest, &formJSON, &responsesJSON, &decision, &decidedAt)
	if err == sql.ErrNoRows {
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Form = json.RawMessage(formJSON)
	e.Responses = json.RawMessage(responsesJSON)
	if err := json.Unmarshal([]byte(decision), &e.Decision); err != nil {
		return Entry{}, fmt.Errorf("entry %s: unmarshal decision: %w", e.ID, err)
	}
	if decidedAt != "" {
		if e.DecidedAt, err = time.Parse(time.RFC3339Nano, decidedAt); err != nil {
			return Entry{}, fmt.Errorf("entry %s: parse decided_at: %w", e.ID, err)
		}
	}
	return e, nil
}

// formatTime stores the zero time as an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
