package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUDPChannelLoopback(t *testing.T) {
	a, err := ListenUDP("127.0.0.1:0", DefaultConfig())
	require.NoError(t, err)
	defer a.Close()

	b, err := ListenUDP("127.0.0.1:0", DefaultConfig())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.SendTo([]byte("hello"), b.LocalAddr()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, _, err := b.RecvFrom(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestUDPChannelRecvTimeout(t *testing.T) {
	a, err := ListenUDP("127.0.0.1:0", DefaultConfig())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = a.RecvFrom(ctx)
	require.Error(t, err)
}
