package service

import (
	"fmt"
	e "prowl/error"
	"prowl/pkg/prowler"
	"prowl/pkg/prowler/prowlertest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cmd, args, err := Resolve(`find heap str "hello world"`)
	require.NoError(t, err)
	assert.Equal(t, Find, cmd)
	assert.Equal(t, []string{"heap", "str", "hello world"}, args)

	cmd, args, err = Resolve("MAPS")
	require.NoError(t, err)
	assert.Equal(t, Maps, cmd)
	assert.Empty(t, args)

	for _, expr := range []string{"", "   ", "poke 1 2", `find heap str "open`} {
		_, _, err := Resolve(expr)
		assert.ErrorIs(t, err, e.InvalidExpression, expr)
	}
}

func TestCmdType(t *testing.T) {
	assert.Equal(t, "patch", Patch.String())
	assert.Equal(t, "CmdType(9)", CmdType(9).String())
	assert.Equal(t, "find heap u32 0", Expr(Find, " heap u32 0 "))
	assert.Equal(t, "maps", Expr(Maps, ""))
	assert.Equal(t, "peek <addr> <len> [kind]", Usage(Peek))
}

func TestExecMaps(t *testing.T) {
	p, _ := prowlertest.New(t)

	out, err := ExecExpr(p, "maps")
	require.NoError(t, err)
	assert.Contains(t, out, "heap")
	assert.Contains(t, out, "/usr/lib/libc.so.6")
	assert.Contains(t, out, "#3")

	out, err = ExecExpr(p, "maps libc")
	require.NoError(t, err)
	assert.Contains(t, out, "/usr/lib/libc.so.6")
	assert.NotContains(t, out, "/usr/bin/target")

	_, err = ExecExpr(p, "maps a b")
	assert.ErrorIs(t, err, e.InvalidExpression)
}

func TestExecFindAndPatch(t *testing.T) {
	p, target := prowlertest.New(t)

	out, err := ExecExpr(p, "find heap u32 0")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("1 match(es) in heap\n%#x\n", prowlertest.HeapStart+8), out)

	out, err = ExecExpr(p, "patch heap u32 0 0x01020304")
	require.NoError(t, err)
	assert.Equal(t, "1/1 applied in heap\n", out)
	assert.Equal(t, uint32(0x01020304), target.Uint32(prowlertest.HeapStart+8))

	out, err = ExecExpr(p, "patch stack u32 1000000000 1000000001")
	require.NoError(t, err)
	assert.Equal(t, "1/1 applied in stack\n", out)
	assert.Equal(t, uint32(1000000001), target.Uint32(prowlertest.StackStart+4))
}

func TestExecPatchPartial(t *testing.T) {
	p, _ := prowlertest.New(t)

	out, err := ExecExpr(p, "patch libc.so.6 u32 1000000000 7")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("0/1 applied in libc.so.6\nfailed:\n%#x\n", prowlertest.ReadOnly), out)
}

func TestExecPeek(t *testing.T) {
	p, _ := prowlertest.New(t)

	out, err := ExecExpr(p, fmt.Sprintf("peek %#x 4 u32", prowlertest.StackStart+4))
	require.NoError(t, err)
	assert.Contains(t, out, "00 ca 9a 3b")
	assert.Contains(t, out, "u32: 1000000000")
}

func TestExecPeekLengthBound(t *testing.T) {
	p, _ := prowlertest.New(t)

	for _, n := range []string{"1048577", "8000000000", "9000000000000000000"} {
		_, err := ExecExpr(p, fmt.Sprintf("peek %#x %s", prowlertest.HeapStart, n))
		assert.ErrorIs(t, err, e.InvalidExpression, n)
	}

	_, err := p.Peek(prowlertest.HeapStart, prowler.MaxPeek+1)
	assert.Error(t, err)
}

func TestExecErrors(t *testing.T) {
	p, _ := prowlertest.New(t)

	for expr, want := range map[string]error{
		"find heap u32":          e.InvalidExpression,
		"find heap u99 0":        e.InvalidExpression,
		"find heap u8 300":       e.InvalidExpression,
		"find nowhere u32 0":     e.RegionNotFound,
		"patch heap u32 0":       e.InvalidExpression,
		"peek zz 4":              e.InvalidExpression,
		"peek 0x10 -1":           e.InvalidExpression,
		"peek 0x10 4":            e.RemoteReadFailed,
		"peek 0x55d00000 4 u128": e.InvalidExpression,
	} {
		_, err := ExecExpr(p, expr)
		assert.ErrorIs(t, err, want, expr)
	}
}
