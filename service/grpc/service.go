package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "prowl.Prowl"

type ExecRequest struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args"`
}

type ExecReply struct {
	Output string `json:"output"`
}

type PingRequest struct{}

type PingReply struct {
	Pid int `json:"pid"`
}

// ProwlServer is implemented by Server and registered through
// prowlServiceDesc.
type ProwlServer interface {
	Exec(context.Context, *ExecRequest) (*ExecReply, error)
	Ping(context.Context, *PingRequest) (*PingReply, error)
}

func execHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExecRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProwlServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Exec",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProwlServer).Exec(ctx, req.(*ExecRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProwlServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Ping",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProwlServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var prowlServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProwlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Exec", Handler: execHandler},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "prowl.proto",
}
