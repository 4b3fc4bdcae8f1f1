package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, NewNormalizer(nil), time.Hour)
}

func stagedSession(t *testing.T, store *SessionStore) *Session {
	t.Helper()
	raw := "Company,Contact,Role\nAcme,Jane Smith,CTO\nGlobex,Hank Scorpio,CEO\n"
	headers, rows, err := ParseDelimited(raw, ',')
	require.NoError(t, err)
	sess, err := store.Create(context.Background(), testTenant, "leads.csv", ",", raw, headers, rows)
	require.NoError(t, err)
	return sess
}

func TestSessionCreateAutoMaps(t *testing.T) {
	store := newTestStore(t)
	sess := stagedSession(t, store)

	assert.Equal(t, SessionStaging, sess.Status)
	assert.True(t, sess.Mapping.Complete())
	assert.Len(t, sess.Candidates, 2, "complete mapping stages immediately")

	got, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Len(t, got.Candidates, 2)
}

func TestSessionGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateMappingClearsStagedSetWhenIncomplete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	m := FieldMapping{}
	for k, v := range sess.Mapping {
		m[k] = v
	}
	delete(m, FieldRole)
	got, err := store.UpdateMapping(ctx, sess.ID, m)
	require.NoError(t, err)
	assert.Empty(t, got.Candidates, "unmapping a required field empties the staged set")

	m[FieldRole] = "Role"
	got, err = store.UpdateMapping(ctx, sess.ID, m)
	require.NoError(t, err)
	assert.Len(t, got.Candidates, 2, "staged set repopulates when mapping is complete again")
}

func TestReparseWithNewDelimiter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	raw := sess.RawText
	require.NotEmpty(t, raw)
	headers, rows, err := ParseDelimited(raw, ';')
	require.NoError(t, err)
	got, err := store.Reparse(ctx, sess.ID, ";", headers, rows)
	require.NoError(t, err)

	// Parsed with the wrong delimiter the file is one wide column.
	assert.Len(t, got.Headers, 1)
	assert.Empty(t, got.Candidates)
}

func TestRemoveCandidate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	got, err := store.RemoveCandidate(ctx, sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "Globex", got.Candidates[0].Company.Name)

	_, err = store.RemoveCandidate(ctx, sess.ID, 5)
	assert.ErrorIs(t, err, ErrBadIndex)
	_, err = store.RemoveCandidate(ctx, sess.ID, -1)
	assert.ErrorIs(t, err, ErrBadIndex)
}

func TestCommitLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	_, err := store.BeginCommit(ctx, sess.ID)
	require.NoError(t, err)

	// While committing: no edits, no second commit, no dismissal.
	_, err = store.BeginCommit(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrCommitInFlight)
	_, err = store.UpdateMapping(ctx, sess.ID, sess.Mapping)
	assert.ErrorIs(t, err, ErrCommitInFlight)
	err = store.Delete(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrCommitInFlight)

	require.NoError(t, store.FinishCommit(ctx, sess.ID))
	_, err = store.BeginCommit(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionCommitted)
	_, err = store.RemoveCandidate(ctx, sess.ID, 0)
	assert.ErrorIs(t, err, ErrSessionCommitted)
}

func TestBeginCommitEntryIsLocked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	_, err := store.BeginCommit(ctx, sess.ID)
	require.NoError(t, err)

	// Rewind the stored status without touching the lock, modeling a
	// concurrent commit whose status read raced the first one's save.
	// The lock, not the stored status, gates entry.
	sess.Status = SessionStaging
	require.NoError(t, store.save(ctx, sess))

	_, err = store.BeginCommit(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrCommitInFlight)
}

func TestAbortCommitReturnsToStaging(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	_, err := store.BeginCommit(ctx, sess.ID)
	require.NoError(t, err)
	require.NoError(t, store.AbortCommit(ctx, sess.ID))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionStaging, got.Status)

	_, err = store.BeginCommit(ctx, sess.ID)
	assert.NoError(t, err, "retry after abort")
}

func TestDeleteRemovesSessionAndProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := stagedSession(t, store)

	store.SetProgress(ctx, &Progress{SessionID: sess.ID, Phase: "leads", Done: 1, Total: 2})
	p, err := store.GetProgress(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "leads", p.Phase)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	p, err = store.GetProgress(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "unknown", p.Phase, "progress gone with the session")
}
