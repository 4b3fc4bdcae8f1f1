package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound  = errors.New("upload session not found")
	ErrSessionCommitted = errors.New("upload session already committed")
	ErrCommitInFlight   = errors.New("commit in progress")
	ErrBadIndex         = errors.New("candidate index out of range")
)

// Session statuses.
const (
	SessionStaging    = "staging"
	SessionCommitting = "committing"
	SessionCommitted  = "committed"
)

// Session holds one upload dialog's state between parse and commit: the
// parsed rows, the current field mapping, and the staged candidates.
// Everything is discarded at session end; nothing durable happens until
// commit.
type Session struct {
	ID         string       `json:"id"`
	TenantID   string       `json:"tenant_id"`
	Filename   string       `json:"filename"`
	Delimiter  string       `json:"delimiter"` // empty for sheet uploads
	RawText    string       `json:"raw_text,omitempty"` // kept for delimiter re-parse; empty for sheets
	Headers    []string     `json:"headers"`
	Rows       []RawRow     `json:"rows"`
	Mapping    FieldMapping `json:"mapping"`
	Candidates []Candidate  `json:"candidates"`
	Status     string       `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

// Progress is what the upload dialog polls during a commit: the current
// phase plus rows completed / rows total.
type Progress struct {
	SessionID string    `json:"session_id"`
	Phase     string    `json:"phase"` // staging, companies, leads, done
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Summary   string    `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore keeps upload sessions in Redis with a TTL, so a dialog
// abandoned without cancelling cleans itself up.
type SessionStore struct {
	redis      *redis.Client
	normalizer *Normalizer
	ttl        time.Duration
}

// NewSessionStore creates a session store. ttl <= 0 defaults to 24h.
func NewSessionStore(rdb *redis.Client, n *Normalizer, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{redis: rdb, normalizer: n, ttl: ttl}
}

// Create stages a new session from parsed rows: auto-maps the headers
// and, if the mapping is already complete, builds the candidate set.
func (s *SessionStore) Create(ctx context.Context, tenantID, filename, delimiter, rawText string, headers []string, rows []RawRow) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Filename:  filename,
		Delimiter: delimiter,
		RawText:   rawText,
		Headers:   headers,
		Rows:      rows,
		Mapping:   AutoMap(headers),
		Status:    SessionStaging,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	sess.Candidates = s.normalizer.Candidates(tenantID, rows, sess.Mapping)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns a session by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// UpdateMapping replaces the field mapping and recomputes the staged
// set. When a required field is unmapped the staged set is cleared; it
// repopulates as soon as the mapping is complete again. The debounce on
// rapid mapping edits belongs to the caller.
func (s *SessionStore) UpdateMapping(ctx context.Context, id string, m FieldMapping) (*Session, error) {
	sess, err := s.mutable(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Mapping = m
	sess.Candidates = s.normalizer.Candidates(sess.TenantID, sess.Rows, m)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Reparse replaces the parsed rows (after a delimiter change) and runs
// auto-mapping again, exactly as if the file had just been uploaded.
func (s *SessionStore) Reparse(ctx context.Context, id, delimiter string, headers []string, rows []RawRow) (*Session, error) {
	sess, err := s.mutable(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Delimiter = delimiter
	sess.Headers = headers
	sess.Rows = rows
	sess.Mapping = AutoMap(headers)
	sess.Candidates = s.normalizer.Candidates(sess.TenantID, rows, sess.Mapping)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// RemoveCandidate removes one staged record by index. Candidates are
// never edited in place, only removed whole.
func (s *SessionStore) RemoveCandidate(ctx context.Context, id string, index int) (*Session, error) {
	sess, err := s.mutable(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sess.Candidates) {
		return nil, ErrBadIndex
	}
	sess.Candidates = append(sess.Candidates[:index], sess.Candidates[index+1:]...)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// BeginCommit transitions the session into the committing state.
// Returns ErrCommitInFlight if a commit already started: once writes are
// in flight the session may not be dismissed or re-committed. Entry is
// guarded by a SETNX lock, not just the stored status, so two
// simultaneous commit requests cannot both pass the status check and run
// the engine twice.
func (s *SessionStore) BeginCommit(ctx context.Context, id string) (*Session, error) {
	locked, err := s.redis.SetNX(ctx, commitLockKey(id), "1", s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire commit lock: %w", err)
	}
	if !locked {
		return nil, ErrCommitInFlight
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		s.redis.Del(ctx, commitLockKey(id))
		return nil, err
	}
	if sess.Status == SessionCommitted {
		s.redis.Del(ctx, commitLockKey(id))
		return nil, ErrSessionCommitted
	}
	sess.Status = SessionCommitting
	if err := s.save(ctx, sess); err != nil {
		s.redis.Del(ctx, commitLockKey(id))
		return nil, err
	}
	return sess, nil
}

// FinishCommit marks the session committed. The session is kept for one
// hour so the dialog can still read the final progress, then expires.
func (s *SessionStore) FinishCommit(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Status = SessionCommitted
	data, _ := json.Marshal(sess)
	if err := s.redis.Set(ctx, sessionKey(id), data, time.Hour).Err(); err != nil {
		return err
	}
	return s.redis.Del(ctx, commitLockKey(id)).Err()
}

// AbortCommit returns a session to staging after a failed commit so the
// caller can retry the whole pass.
func (s *SessionStore) AbortCommit(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Status = SessionStaging
	if err := s.save(ctx, sess); err != nil {
		return err
	}
	return s.redis.Del(ctx, commitLockKey(id)).Err()
}

// Delete dismisses a session. Refused while a commit is in flight.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == SessionCommitting {
		return ErrCommitInFlight
	}
	s.redis.Del(ctx, progressKey(id), commitLockKey(id))
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

// SetProgress publishes commit progress for the dialog to poll.
func (s *SessionStore) SetProgress(ctx context.Context, p *Progress) {
	p.UpdatedAt = time.Now()
	data, _ := json.Marshal(p)
	if err := s.redis.Set(ctx, progressKey(p.SessionID), data, s.ttl).Err(); err != nil {
		// Progress is advisory; losing an update never fails the upload.
		return
	}
}

// GetProgress returns the last published progress for a session.
func (s *SessionStore) GetProgress(ctx context.Context, id string) (*Progress, error) {
	data, err := s.redis.Get(ctx, progressKey(id)).Bytes()
	if err == redis.Nil {
		return &Progress{SessionID: id, Phase: "unknown"}, nil
	}
	if err != nil {
		return nil, err
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// mutable loads a session and checks it can still be edited.
func (s *SessionStore) mutable(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case SessionCommitting:
		return nil, ErrCommitInFlight
	case SessionCommitted:
		return nil, ErrSessionCommitted
	}
	return sess, nil
}

func (s *SessionStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func sessionKey(id string) string    { return fmt.Sprintf("upload:session:%s", id) }
func progressKey(id string) string   { return fmt.Sprintf("upload:progress:%s", id) }
func commitLockKey(id string) string { return fmt.Sprintf("upload:commitlock:%s", id) }
