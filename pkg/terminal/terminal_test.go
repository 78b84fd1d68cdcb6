package terminal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"prowl/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	cmd  service.CmdType
	args string
}

type fakeClient struct {
	sent  []sent
	reply string
	err   error
}

func (c *fakeClient) SendExpr(cmdType service.CmdType, args string) (string, error) {
	c.sent = append(c.sent, sent{cmdType, args})
	return c.reply, c.err
}

func (c *fakeClient) IsProwlServer() bool { return true }

func (c *fakeClient) Close() error { return nil }

func newTestTerm(client service.Client) (*Term, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Term{
		client: client,
		prompt: prompt,
		cmds:   NewCommands(client),
		stdout: newTranscriptWriter(&buf, false),
	}, &buf
}

func TestRemoteCommands(t *testing.T) {
	client := &fakeClient{reply: "1 match(es) in heap\n0x10\n"}
	term, out := newTestTerm(client)

	require.NoError(t, term.cmds.Call("find heap u32 0", term))
	require.NoError(t, term.cmds.Call("  f   stack u8 1 ", term))
	require.NoError(t, term.cmds.Call("p heap u32 0 1", term))
	require.NoError(t, term.cmds.Call("x 0x10 4", term))
	require.NoError(t, term.cmds.Call("maps", term))

	assert.Equal(t, []sent{
		{service.Find, "heap u32 0"},
		{service.Find, "stack u8 1"},
		{service.Patch, "heap u32 0 1"},
		{service.Peek, "0x10 4"},
		{service.Maps, ""},
	}, client.sent)
	assert.Contains(t, out.String(), "0x10\n")
}

func TestRemoteError(t *testing.T) {
	client := &fakeClient{err: errors.New("region not found")}
	term, _ := newTestTerm(client)

	assert.EqualError(t, term.cmds.Call("find nowhere u32 0", term), "region not found")
}

func TestHelpAndUnknown(t *testing.T) {
	term, out := newTestTerm(&fakeClient{})

	require.NoError(t, term.cmds.Call("help", term))
	assert.Contains(t, out.String(), "patch (alias: p)")

	out.Reset()
	require.NoError(t, term.cmds.Call("help find", term))
	assert.Contains(t, out.String(), "find <region> <kind> <value>")
	assert.Contains(t, out.String(), "u32")
	assert.Contains(t, out.String(), "multiple of its width")

	out.Reset()
	require.NoError(t, term.cmds.Call("help patch", term))
	assert.Contains(t, out.String(), "unaligned occurrences are not patched")

	assert.ErrorIs(t, term.cmds.Call("help nope", term), errNoCmd)
	assert.ErrorIs(t, term.cmds.Call("poke", term), errNoCmd)
	assert.NoError(t, term.cmds.Call("", term))
	assert.IsType(t, ExitRequestError{}, term.cmds.Call("quit", term))
}

func TestTranscript(t *testing.T) {
	client := &fakeClient{reply: "hello"}
	term, _ := newTestTerm(client)
	path := filepath.Join(t.TempDir(), "session.txt")

	require.NoError(t, term.cmds.Call("transcript -t "+path, term))
	term.stdout.Echo(prompt + "maps\n")
	require.NoError(t, term.cmds.Call("maps", term))
	require.NoError(t, term.cmds.Call("transcript -off", term))
	require.NoError(t, term.cmds.Call("maps", term))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(prowl) maps\nhello\n", string(data))

	assert.Error(t, term.cmds.Call("transcript", term))
	assert.Error(t, term.cmds.Call("transcript a b", term))
}

func TestCompleter(t *testing.T) {
	term, _ := newTestTerm(&fakeClient{})
	complete := term.completer()

	assert.Equal(t, []string{"find"}, complete("fi"))
	assert.Equal(t, []string{"peek"}, complete("pe"))
	assert.Equal(t, []string{"find heap u16", "find heap u32", "find heap u64", "find heap u8"}, complete("find heap u"))
	assert.Len(t, complete("patch heap "), 12)
	assert.Nil(t, complete("maps heap "))
	assert.Nil(t, complete("find heap u32 "))
}
