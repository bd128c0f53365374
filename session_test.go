package chardev

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishedBinding(t *testing.T, clock Clock) *DeviceBinding {
	t.Helper()
	b, err := NewDeviceBinding(DeviceConfig{Name: "simple_dev"}, Dependencies{
		Registry: newRecordingRegistry(),
		Clock:    clock,
	})
	require.NoError(t, err)
	require.NoError(t, b.Create(context.Background()))
	return b
}

func TestSessionCursorsAreIndependent(t *testing.T) {
	b := publishedBinding(t, newFakeClock())

	writer, err := b.Open()
	require.NoError(t, err)
	_, err = writer.Write([]byte("HELLOWORLD"))
	require.NoError(t, err)

	reader, err := b.Open()
	require.NoError(t, err)

	// The reader's cursor is not affected by the writer's progress.
	data, err := reader.Read(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO"), data)
	assert.Equal(t, uint64(5), reader.Position())
	assert.Equal(t, uint64(10), writer.Position())

	data, err = reader.Read(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("WORLD"), data)
}

func TestSessionCloseRemovesItFromBinding(t *testing.T) {
	b := publishedBinding(t, newFakeClock())

	s, err := b.Open()
	require.NoError(t, err)
	assert.Equal(t, 1, b.OpenSessions())

	require.NoError(t, s.Close())
	assert.Equal(t, 0, b.OpenSessions())

	_, err = s.Read(1)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrSessionClosed)

	// Second close is a no-op.
	require.NoError(t, s.Close())
}

func TestSessionLastUsedAdvancesOnIO(t *testing.T) {
	clock := newFakeClock()
	b := publishedBinding(t, clock)

	s, err := b.Open()
	require.NoError(t, err)
	opened := s.LastUsed()

	clock.advance(10 * time.Second)
	_, err = s.Write([]byte("tick"))
	require.NoError(t, err)
	assert.Equal(t, opened.Add(10*time.Second), s.LastUsed())
}

func TestReaperClosesIdleSessions(t *testing.T) {
	clock := newFakeClock()
	b := publishedBinding(t, clock)
	reaper := NewSessionReaper(b, time.Minute, 5*time.Minute, nil)

	idle, err := b.Open()
	require.NoError(t, err)
	active, err := b.Open()
	require.NoError(t, err)

	clock.advance(4 * time.Minute)
	_, err = active.Write([]byte("still here"))
	require.NoError(t, err)

	clock.advance(2 * time.Minute)
	reaped := reaper.SweepNow()

	assert.Equal(t, 1, reaped)
	assert.Equal(t, 1, b.OpenSessions())

	_, err = idle.Read(1)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = active.Read(1)
	assert.NoError(t, err)

	status := reaper.Status()
	assert.Equal(t, int64(1), status.TotalSweeps)
	assert.Equal(t, int64(1), status.TotalReaped)
}

func TestReaperDisabledWithZeroTTL(t *testing.T) {
	clock := newFakeClock()
	b := publishedBinding(t, clock)
	reaper := NewSessionReaper(b, time.Minute, 0, nil)

	_, err := b.Open()
	require.NoError(t, err)

	reaper.Start()
	assert.False(t, reaper.IsRunning())

	clock.advance(time.Hour)
	assert.Equal(t, 0, reaper.SweepNow())
	assert.Equal(t, 1, b.OpenSessions())
}

func TestReaperStartStop(t *testing.T) {
	b := publishedBinding(t, newFakeClock())
	reaper := NewSessionReaper(b, time.Minute, time.Minute, nil)

	reaper.Start()
	assert.True(t, reaper.IsRunning())
	reaper.Start() // second start is a no-op
	assert.True(t, reaper.IsRunning())

	reaper.Stop()
	assert.False(t, reaper.IsRunning())
	reaper.Stop() // second stop is a no-op
}
