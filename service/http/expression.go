package http

// Expression is the request body: a command line such as
// `find heap u32 0` and the pid of the sending client.
type Expression struct {
	Expr string `json:"expression"`
	Pid  int    `json:"pid"`
}

func newExpression(expr string, pid int) *Expression {
	return &Expression{Expr: expr, Pid: pid}
}
