package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	sess, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, s.Save(ctx, 1, &Session{Step: StepAwaitDoctor, Draft: Draft{PatientName: "Иван"}}))

	sess, err = s.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, StepAwaitDoctor, sess.Step)
	assert.Equal(t, "Иван", sess.Draft.PatientName)

	// Load returns a copy: mutating it must not leak into the store.
	sess.Draft.PatientName = "Пётр"
	again, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Иван", again.Draft.PatientName)

	require.NoError(t, s.Clear(ctx, 1))
	sess, err = s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)

	// Clearing an absent session is fine.
	require.NoError(t, s.Clear(ctx, 1))
}

func TestMemorySessionStorePerUser(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, 1, &Session{Step: StepAwaitName}))
	require.NoError(t, s.Save(ctx, 2, &Session{Step: StepAwaitNewTime, TargetID: 7}))

	one, err := s.Load(ctx, 1)
	require.NoError(t, err)
	two, err := s.Load(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, StepAwaitName, one.Step)
	assert.Equal(t, StepAwaitNewTime, two.Step)
	assert.Equal(t, int64(7), two.TargetID)
}

func newRedisSessionStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl, nil), mr
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	s, _ := newRedisSessionStore(t, time.Hour)
	ctx := context.Background()

	sess, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, sess, "missing session loads as nil, not an error")

	in := &Session{
		Step:  StepAwaitConfirmation,
		Draft: Draft{PatientName: "Иван Петров", DoctorID: "ivanova", Doctor: "Терапевт Иванова А.С.", Procedure: "Консультация", Date: "01.09.2026", Time: "09:00"},
	}
	require.NoError(t, s.Save(ctx, 42, in))

	out, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, *in, *out)

	require.NoError(t, s.Clear(ctx, 42))
	out, err = s.Load(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRedisSessionStoreTTL(t *testing.T) {
	s, mr := newRedisSessionStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, 7, &Session{Step: StepAwaitName}))
	mr.FastForward(2 * time.Minute)

	sess, err := s.Load(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, sess, "session must expire with the TTL")
}
