package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

func (s *SQLStore) GetSession(ctx context.Context, ns Namespace) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, input_tokens, output_tokens, created_at, updated_at
         FROM sessions WHERE namespace = ?`, string(ns))

	var (
		sess      Session
		inputs    string
		createdAt string
		updatedAt string
	)
	err := row.Scan(&sess.ID, &inputs, &sess.InputTokens, &sess.OutputTokens, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", ns, err)
	}
	sess.Namespace = ns
	sess.Inputs = []byte(inputs)
	sess.CreatedAt = parseTimestamp(createdAt)
	sess.UpdatedAt = parseTimestamp(updatedAt)
	return &sess, nil
}

func (s *SQLStore) SaveSession(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is required")
	}
	if !sess.Namespace.Valid() {
		return fmt.Errorf("unknown namespace %q", sess.Namespace)
	}
	now := time.Now().UTC()
	created := sess.CreatedAt
	if created.IsZero() {
		created = now
	}
	sess.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (namespace, id, inputs, input_tokens, output_tokens, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(namespace) DO UPDATE SET
            id = excluded.id,
            inputs = excluded.inputs,
            input_tokens = excluded.input_tokens,
            output_tokens = excluded.output_tokens,
            updated_at = excluded.updated_at`,
		string(sess.Namespace), sess.ID, string(sess.Inputs),
		sess.InputTokens, sess.OutputTokens,
		created.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.Namespace, err)
	}
	return nil
}

func (s *SQLStore) ClearSession(ctx context.Context, ns Namespace) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM sessions WHERE namespace = ?",
		"DELETE FROM cache_entries WHERE namespace = ?",
		"DELETE FROM task_states WHERE namespace = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, string(ns)); err != nil {
			return fmt.Errorf("clear session %s: %w", ns, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func (s *SQLStore) AddTokens(ctx context.Context, ns Namespace, input, output int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET input_tokens = input_tokens + ?, output_tokens = output_tokens + ?,
            updated_at = ? WHERE namespace = ?`,
		input, output, time.Now().UTC().Format(time.RFC3339Nano), string(ns))
	if err != nil {
		return fmt.Errorf("add tokens %s: %w", ns, err)
	}
	return nil
}

func (s *SQLStore) Entry(ctx context.Context, ns Namespace, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT text FROM cache_entries WHERE namespace = ? AND cache_key = ?",
		string(ns), key)
	var text string
	err := row.Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get entry %s/%s: %w", ns, key, err)
	}
	return text, true, nil
}

func (s *SQLStore) PutEntry(ctx context.Context, ns Namespace, key, text string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (namespace, cache_key, text, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(namespace, cache_key) DO UPDATE SET text = excluded.text`,
		string(ns), key, text, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put entry %s/%s: %w", ns, key, err)
	}
	return nil
}

func (s *SQLStore) DeleteEntries(ctx context.Context, ns Namespace, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cache_entries WHERE namespace = ? AND cache_key = ?",
			string(ns), key); err != nil {
			return fmt.Errorf("delete entry %s/%s: %w", ns, key, err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM task_states WHERE namespace = ? AND cache_key = ?",
			string(ns), key); err != nil {
			return fmt.Errorf("delete task state %s/%s: %w", ns, key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (s *SQLStore) Snapshot(ctx context.Context, ns Namespace) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT cache_key, text FROM cache_entries WHERE namespace = ?", string(ns))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", ns, err)
	}
	defer rows.Close()

	snapshot := make(map[string]string)
	for rows.Next() {
		var key, text string
		if err := rows.Scan(&key, &text); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snapshot[key] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *SQLStore) SetTaskState(ctx context.Context, ns Namespace, key string, status Status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_states (namespace, cache_key, status, error_message, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(namespace, cache_key) DO UPDATE SET
            status = excluded.status,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		string(ns), key, string(status), errorMessage,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set task state %s/%s: %w", ns, key, err)
	}
	return nil
}

func (s *SQLStore) TaskState(ctx context.Context, ns Namespace, key string) (TaskState, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT status, error_message, updated_at FROM task_states WHERE namespace = ? AND cache_key = ?",
		string(ns), key)
	state := TaskState{Key: key, Status: StatusPending}
	var status, updatedAt string
	err := row.Scan(&status, &state.ErrorMessage, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("get task state %s/%s: %w", ns, key, err)
	}
	state.Status = Status(status)
	state.UpdatedAt = parseTimestamp(updatedAt)
	return state, nil
}

func (s *SQLStore) TaskStates(ctx context.Context, ns Namespace) (map[string]TaskState, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT cache_key, status, error_message, updated_at FROM task_states WHERE namespace = ?",
		string(ns))
	if err != nil {
		return nil, fmt.Errorf("task states %s: %w", ns, err)
	}
	defer rows.Close()

	states := make(map[string]TaskState)
	for rows.Next() {
		var state TaskState
		var status, updatedAt string
		if err := rows.Scan(&state.Key, &status, &state.ErrorMessage, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task state row: %w", err)
		}
		state.Status = Status(status)
		state.UpdatedAt = parseTimestamp(updatedAt)
		states[state.Key] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task states: %w", err)
	}
	return states, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
