package grpc

import (
	"context"
	"fmt"
	"prowl/service"
	"time"

	"github.com/google/shlex"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type Client struct {
	addr    string
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	c := &Client{
		addr:    addr,
		conn:    conn,
		timeout: 30 * time.Second,
	}

	if !c.IsProwlServer() {
		conn.Close()
		return nil, fmt.Errorf("%s is not a prowl server", addr)
	}
	return c, nil
}

func (c *Client) invoke(method string, req, reply interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, reply, grpc.CallContentSubtype(codecName))
}

func (c *Client) SendExpr(cmdType service.CmdType, args string) (string, error) {
	fields, err := shlex.Split(args)
	if err != nil {
		return "", err
	}

	reply := new(ExecReply)
	if err := c.invoke("Exec", &ExecRequest{Cmd: cmdType.String(), Args: fields}, reply); err != nil {
		if st, ok := status.FromError(err); ok {
			return "", fmt.Errorf("%s (%s)", st.Message(), st.Code())
		}
		return "", err
	}
	return reply.Output, nil
}

// Pid returns the pid of the process the server is attached to.
func (c *Client) Pid() (int, error) {
	reply := new(PingReply)
	if err := c.invoke("Ping", &PingRequest{}, reply); err != nil {
		return 0, err
	}
	return reply.Pid, nil
}

func (c *Client) IsProwlServer() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName})
	if err != nil {
		return false
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func (c *Client) Close() error {
	return c.conn.Close()
}
