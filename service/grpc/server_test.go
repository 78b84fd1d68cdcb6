package grpc

import (
	"context"
	"fmt"
	"net"
	"prowl/pkg/prowler/prowlertest"
	"prowl/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func startServer(t *testing.T) (*Server, *prowlertest.Target) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	p, target := prowlertest.New(t)
	s := NewServer(lis, p)

	done := make(chan error, 1)
	go func() { done <- s.Run() }()
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
		require.NoError(t, <-done)
	})
	return s, target
}

func TestClientRoundTrip(t *testing.T) {
	s, target := startServer(t)

	c, err := NewClient(s.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	pid, err := c.Pid()
	require.NoError(t, err)
	assert.Equal(t, prowlertest.Pid, pid)

	out, err := c.SendExpr(service.Find, "heap u32 0")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("%#x", prowlertest.HeapStart+8))

	out, err = c.SendExpr(service.Patch, "heap u32 0 0x01020304")
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 applied")
	assert.Equal(t, uint32(0x01020304), target.Uint32(prowlertest.HeapStart+8))

	out, err = c.SendExpr(service.Maps, "")
	require.NoError(t, err)
	assert.Contains(t, out, "/usr/lib/libc.so.6")
}

func TestClientErrors(t *testing.T) {
	s, _ := startServer(t)

	c, err := NewClient(s.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SendExpr(service.Find, "nowhere u32 0")
	assert.ErrorContains(t, err, "NotFound")

	_, err = c.SendExpr(service.Peek, "zz 4")
	assert.ErrorContains(t, err, "InvalidArgument")

	_, err = c.SendExpr(service.Find, `heap str "open`)
	assert.Error(t, err)
}

func TestNotAServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	_, err = NewClient(addr)
	assert.Error(t, err)
}

func TestPeekLengthBound(t *testing.T) {
	s, _ := startServer(t)

	c, err := NewClient(s.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SendExpr(service.Peek, fmt.Sprintf("%#x 9000000000000000000", prowlertest.HeapStart))
	assert.ErrorContains(t, err, "InvalidArgument")

	pid, err := c.Pid()
	require.NoError(t, err)
	assert.Equal(t, prowlertest.Pid, pid)
}

func TestRecoverUnary(t *testing.T) {
	s, _ := startServer(t)

	info := &grpc.UnaryServerInfo{FullMethod: "/prowl.Prowl/Exec"}
	resp, err := s.recoverUnary(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.ErrorContains(t, err, "boom")
}

func TestStopTwice(t *testing.T) {
	s, _ := startServer(t)
	require.NoError(t, s.Stop())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "Internal", errorCode(fmt.Errorf("x")).String())
}
