package net

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAddr returns a loopback address nothing is listening on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestNegotiateFallsBackToServer(t *testing.T) {
	addr := freeAddr(t)

	first, err := Negotiate(context.Background(), addr, DialTimeout)
	require.NoError(t, err)
	defer first.Close()
	assert.Equal(t, RoleServer, first.Role)
	require.NotNil(t, first.Listener)
	assert.Nil(t, first.Upstream)

	second, err := Negotiate(context.Background(), addr, DialTimeout)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, RoleClient, second.Role)
	require.NotNil(t, second.Upstream)
	assert.Nil(t, second.Listener)
}

func TestNegotiateOtherErrorsLeaveNodeOffline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := Negotiate(ctx, freeAddr(t), DialTimeout)
	assert.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, RoleNone, s.Role)
	assert.NoError(t, s.Close())
}

func TestIsRefused(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	assert.True(t, isRefused(refused))
	assert.True(t, isRefused(fmt.Errorf("negotiate: %w", refused)))

	assert.False(t, isRefused(io.EOF))
	assert.False(t, isRefused(&net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ETIMEDOUT)}))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "server", RoleServer.String())
	assert.Equal(t, "client", RoleClient.String())
	assert.Equal(t, "offline", RoleNone.String())
}
