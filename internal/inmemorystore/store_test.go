package inmemorystore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

var volume = &plug.Descriptor{Key: "volume", Direction: plug.Output, Kind: plug.KindNumber}

func numberValue(t *testing.T, n int64) plug.Value {
	t.Helper()
	v, err := plug.NewValue(volume, cty.NumberIntVal(n))
	require.NoError(t, err)
	return v
}

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	status, err := s.GetStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusPending, status)

	require.NoError(t, s.SetStatus(ctx, "c1", nodestore.StatusRunning))
	status, err = s.GetStatus(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusRunning, status)
	assert.Equal(t, "running", status.String())

	assert.Equal(t, map[string]nodestore.Status{"c1": nodestore.StatusRunning}, s.Statuses())
}

func TestSetAndGetOutput(t *testing.T) {
	s := New()
	ctx := context.Background()
	addr := nodeid.MustParse("c1.volume")

	_, ok, err := s.GetOutput(ctx, addr)
	require.NoError(t, err)
	assert.False(t, ok)

	want := numberValue(t, 62)
	require.NoError(t, s.SetOutput(ctx, addr, want))

	got, ok, err := s.GetOutput(ctx, nodeid.New("c1", "volume"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, want.Equal(got))

	_, ok, _ = s.GetOutput(ctx, addr.WithIndex(0))
	assert.False(t, ok, "element addresses are distinct keys")
}

func TestSetAndGetError(t *testing.T) {
	s := New()
	ctx := context.Background()

	got, err := s.GetError(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := errors.New("solver diverged")
	require.NoError(t, s.SetError(ctx, "c1", want))
	got, err = s.GetError(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	const n = 100

	values := make([]plug.Value, n)
	for i := range values {
		values[i] = numberValue(t, int64(i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("c%d", i)
			_ = s.SetStatus(ctx, name, nodestore.StatusCompleted)
			_ = s.SetOutput(ctx, nodeid.New(name, "volume"), values[i])
			_ = s.SetError(ctx, name, fmt.Errorf("error for %s", name))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("c%d", i)

		status, err := s.GetStatus(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, nodestore.StatusCompleted, status)

		v, ok, err := s.GetOutput(ctx, nodeid.New(name, "volume"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprint(i), v.String())

		nodeErr, err := s.GetError(ctx, name)
		require.NoError(t, err)
		assert.EqualError(t, nodeErr, "error for "+name)
	}
}
