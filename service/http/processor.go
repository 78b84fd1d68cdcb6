package http

import (
	"fmt"
	"net/http"
	"prowl/pkg/prowler"
	"prowl/service"
	"prowl/utils"

	"github.com/derekparker/trie"
)

const pingPath = "/prowl"

type Router struct {
	method string
	path   string
	fn     func(ctx *Context)
}

type processor struct {
	prowler *prowler.Prowler
	router  []*Router
	trie    *trie.Trie
}

func (p *processor) route(method, path string) func(ctx *Context) {
	node, found := p.trie.Find(utils.MD5(methodPath(method, path)))
	if found {
		fn := node.Meta().(func(ctx *Context))
		return fn
	}

	return nil
}

func (p *processor) worker(ctx *Context) {
	req := ctx.request
	fn := p.route(req.method, req.path)
	if fn == nil {
		ctx.respFailed(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	fn(ctx)
}

func newProcessor(p *prowler.Prowler) *processor {
	proc := &processor{
		prowler: p,
	}

	register(proc)
	return proc
}

// cmdPath is the route serving cmd. Commands that write to the target
// are POST only.
func cmdPath(cmd service.CmdType) (method, path string) {
	method = http.MethodGet
	if cmd == service.Patch {
		method = http.MethodPost
	}
	return method, "/" + cmd.String()
}

// exprHandler runs the request expression, which must name cmd.
func (p *processor) exprHandler(cmd service.CmdType) func(ctx *Context) {
	return func(ctx *Context) {
		got, args, err := service.Resolve(ctx.expr.Expr)
		if err != nil {
			ctx.respError(err)
			return
		}
		if got != cmd {
			ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("invalid command: %s", got))
			return
		}

		out, err := service.Exec(p.prowler, cmd, args)
		if err != nil {
			ctx.respError(err)
			return
		}
		ctx.respSuccess(out)
	}
}

func register(p *processor) {
	r := []*Router{
		{
			method: http.MethodGet,
			path:   pingPath,
			fn: func(ctx *Context) {
				ctx.respSuccess(p.prowler.Pid())
			},
		},
	}

	for _, cmd := range []service.CmdType{service.Maps, service.Find, service.Patch, service.Peek} {
		method, path := cmdPath(cmd)
		r = append(r, &Router{method: method, path: path, fn: p.exprHandler(cmd)})
	}

	p.router = r

	t := trie.New()
	for _, router := range p.router {
		md5 := utils.MD5(methodPath(router.method, router.path))
		t.Add(md5, router.fn)
	}

	p.trie = t
}

func methodPath(method, path string) string {
	return fmt.Sprintf("%s:%s", method, path)
}
