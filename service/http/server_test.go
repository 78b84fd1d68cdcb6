package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"prowl/pkg/prowler/prowlertest"
	"prowl/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

	out, err := c.SendExpr(service.Maps, "")
	require.NoError(t, err)
	assert.Contains(t, out, "stack")

	out, err = c.SendExpr(service.Find, "stack u32 1000000000")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("%#x", prowlertest.StackStart+4))

	out, err = c.SendExpr(service.Patch, "stack u32 1000000000 1000000001")
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 applied")
	assert.Equal(t, uint32(1000000001), target.Uint32(prowlertest.StackStart+4))

	out, err = c.SendExpr(service.Peek, fmt.Sprintf("%#x 4 u32", prowlertest.StackStart+4))
	require.NoError(t, err)
	assert.Contains(t, out, "u32: 1000000001")

	_, err = c.SendExpr(service.Find, "nowhere u32 0")
	assert.ErrorContains(t, err, "status 404")

	_, err = c.SendExpr(service.Find, "heap u32")
	assert.ErrorContains(t, err, "status 400")
}

func TestNotAServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := NewClient(ts.Listener.Addr().String())
	assert.ErrorContains(t, err, "not a prowl server")
}

func serve(t *testing.T, s *Server, method, path string, body []byte) (int, response) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(body)))

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestRouting(t *testing.T) {
	s, _ := startServer(t)

	code, resp := serve(t, s, http.MethodGet, pingPath, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, prowlertest.Pid, resp.Data)

	code, _ = serve(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// patch only answers POST
	body, _ := json.Marshal(newExpression("patch heap u32 0 1", 1))
	code, _ = serve(t, s, http.MethodGet, "/patch", body)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = serve(t, s, http.MethodGet, "/find", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp.Msg)

	body, _ = json.Marshal(newExpression("maps", 1))
	code, resp = serve(t, s, http.MethodGet, "/find", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid command: maps", resp.Msg)
}

func TestStopTwice(t *testing.T) {
	s, _ := startServer(t)
	require.NoError(t, s.Stop())
}
