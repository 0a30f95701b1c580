package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterDeliverUnregister(t *testing.T) {
	h := NewHub()

	c1, err := h.Register(1, nil)
	require.NoError(t, err)
	c2, err := h.Register(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Connections(1))

	assert.Equal(t, 2, h.Deliver(1, []byte(`{"type":"message.new"}`)))
	assert.Equal(t, 0, h.Deliver(2, []byte("ignored")))
	assert.Equal(t, `{"type":"message.new"}`, string(<-c1.send))
	assert.Equal(t, `{"type":"message.new"}`, string(<-c2.send))

	h.Unregister(c1)
	h.Unregister(c1)
	assert.Equal(t, 1, h.Connections(1))

	_, open := <-c1.send
	assert.False(t, open)
}

func TestHub_PerUserLimit(t *testing.T) {
	h := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register(5, nil)
		require.NoError(t, err)
	}
	_, err := h.Register(5, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = h.Register(6, nil)
	assert.NoError(t, err)
}

func TestHub_DeliverDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c, err := h.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		require.Equal(t, 1, h.Deliver(1, []byte("x")))
	}
	assert.Equal(t, 0, h.Deliver(1, []byte("overflow")))
	assert.Len(t, c.send, sendBuffer)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := NewHub()
	c, err := h.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, h.Shutdown(context.Background()))
	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, h.Connections(1))

	_, err = h.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubClosed)

	// Unregister after shutdown must not double-close.
	h.Unregister(c)
	require.NoError(t, h.Shutdown(context.Background()))
}
