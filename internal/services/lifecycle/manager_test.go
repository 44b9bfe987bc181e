package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownClosesInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"manifest", "postgres", "progress"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"progress", "postgres", "manifest"}, order)
}

func TestShutdownJoinsErrorsAndRunsOnce(t *testing.T) {
	m := New(time.Second, nil)
	boom := errors.New("boom")

	calls := 0
	m.Register("first", func(context.Context) error {
		calls++
		return nil
	})
	m.Register("second", func(context.Context) error {
		calls++
		return boom
	})
	m.Register("ignored", nil)

	err := m.Shutdown(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestShutdownPassesDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)

	var deadline bool
	m.Register("pool", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, deadline)
}

func TestListenCancelsWithParent(t *testing.T) {
	m := New(0, nil)
	parent, cancelParent := context.WithCancel(context.Background())

	ctx, stop := m.Listen(parent)
	defer stop()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
