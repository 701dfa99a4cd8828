package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Current int  `json:"current"`
	Flag    bool `json:"flag"`
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got sample
	err := Load(ctx, m, SlotProgress, &got)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Save(ctx, m, SlotProgress, sample{Current: 7, Flag: true}))
	require.NoError(t, Load(ctx, m, SlotProgress, &got))
	assert.Equal(t, sample{Current: 7, Flag: true}, got)
	assert.Equal(t, 1, m.Writes(SlotProgress))
}

func TestMemoryCopiesPayload(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte(`{"current":3}`)
	require.NoError(t, m.Put(ctx, SlotProgress, buf))
	buf[2] = 'X'

	data, err := m.Get(ctx, SlotProgress)
	require.NoError(t, err)
	assert.Equal(t, `{"current":3}`, string(data))
}

func TestLoadMalformedIsCorrupt(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, SlotDay, []byte("{not json")))

	var got sample
	err := Load(ctx, m, SlotDay, &got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt), "expected ErrCorrupt, got %v", err)
}

func TestFileRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, Save(ctx, f, SlotStreak, map[string]int{"streak": 4}))

	reopened, err := NewFile(dir)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, Load(ctx, reopened, SlotStreak, &got))
	assert.Equal(t, 4, got["streak"])

	_, err = os.Stat(filepath.Join(dir, "streak.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "streak.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFileMissingSlot(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	_, err = f.Get(context.Background(), SlotTiles)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	assert.Error(t, m.Put(ctx, SlotDay, []byte(`{}`)))
	_, err := m.Get(ctx, SlotDay)
	assert.Error(t, err)
}

func TestRecoverable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, SlotDay, []byte(`not json`)))

	var got sample
	corrupt := Load(ctx, m, SlotDay, &got)
	missing := Load(ctx, m, SlotStreak, &got)

	assert.True(t, Recoverable(missing))
	assert.True(t, Recoverable(corrupt))
	assert.False(t, Recoverable(errors.New("disk I/O error")))
	assert.False(t, Recoverable(context.Canceled))
}
