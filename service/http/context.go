package http

import (
	"encoding/json"
	"errors"
	"net/http"
	e "prowl/error"
	"prowl/pkg/logflags"
)

type Context struct {
	logger   logflags.Logger
	expr     *Expression
	chain    HandlerChain
	aborted  bool
	request  *request
	response *response
	read     *http.Request
	write    http.ResponseWriter
}

func newContext(logger logflags.Logger, w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		logger: logger,
		read:   r,
		write:  w,
	}
}

func (c *Context) respSuccess(data interface{}) {
	c.resp(http.StatusOK, "", data)
}

func (c *Context) respFailed(code int, message string) {
	c.resp(code, message, nil)
}

// respError maps err to a status code.
func (c *Context) respError(err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, e.InvalidExpression), errors.Is(err, e.ReplacementSize):
		code = http.StatusBadRequest
	case errors.Is(err, e.RegionNotFound), errors.Is(err, e.RegionAbsent):
		code = http.StatusNotFound
	case errors.Is(err, e.NoSuchProcess):
		code = http.StatusGone
	}
	c.respFailed(code, err.Error())
}

func (c *Context) resp(status int, msg string, data interface{}) {
	c.response = &response{
		Status: status,
		Msg:    msg,
		Data:   data,
	}
	if status != http.StatusOK {
		c.aborted = true
	}

	bs, err := json.Marshal(c.response)
	if err != nil {
		c.write.WriteHeader(http.StatusInternalServerError)
		c.write.Write([]byte(err.Error()))
		return
	}
	c.write.Header().Set("Content-Type", "application/json")
	c.write.WriteHeader(status)
	c.write.Write(bs)
}
