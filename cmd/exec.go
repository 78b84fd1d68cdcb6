package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"prowl/pkg/config"
	"prowl/pkg/prowler"
	"prowl/pkg/terminal"
	"prowl/service"
	"prowl/service/grpc"
	"prowl/service/http"
	"prowl/utils"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

type ExecType int

const (
	Maps ExecType = iota
	Find
	Patch
	Peek
	Dump
	Serve
	Attach
	Conn
)

const (
	defaultAddr = "127.0.0.1:0"
	waitServer  = 5 * time.Second
)

type executor struct {
	et      ExecType
	pid     int
	ctx     *cli.Context
	cfg     config.Config
	prowler *prowler.Prowler
}

func prowlerOptions(cfg config.Config) []prowler.Option {
	return []prowler.Option{
		prowler.WithChunkSize(cfg.ChunkSize),
		prowler.WithBatch(cfg.Batch),
		prowler.WithRetry(cfg.Retries, cfg.RetryDelay),
		prowler.WithFreeze(cfg.Freeze),
	}
}

func newExecutor(et ExecType, pid int, ctx *cli.Context) (*executor, error) {
	ex := &executor{
		et:  et,
		pid: pid,
		ctx: ctx,
		cfg: configFrom(ctx),
	}

	if et == Conn {
		return ex, nil
	}

	p, err := prowler.NewProwler(pid, prowlerOptions(ex.cfg)...)
	if err != nil {
		return nil, err
	}
	ex.prowler = p
	return ex, nil
}

func (e *executor) run() error {
	switch e.et {
	case Maps:
		return e.maps()
	case Find:
		return e.expr(service.Find)
	case Patch:
		return e.expr(service.Patch)
	case Peek:
		return e.expr(service.Peek)
	case Dump:
		return e.dump()
	case Serve:
		return e.serve()
	case Attach:
		return e.attach()
	case Conn:
		return e.connect(e.ctx.Args().First())
	}

	return nil
}

func exec(et ExecType, pid int, ctx *cli.Context) error {
	ex, err := newExecutor(et, pid, ctx)
	if err != nil {
		return err
	}
	return ex.run()
}

func (e *executor) print(out string) {
	utils.PrintOutput(utils.Stdout(), out, utils.ColorEnabled())
}

func (e *executor) maps() error {
	out, err := service.Exec(e.prowler, service.Maps, e.ctx.Args().Tail())
	if err != nil {
		return err
	}

	header := fmt.Sprintf("pid %d", e.pid)
	if desc := utils.Describe(e.pid); desc != "" {
		header += ": " + desc
	}
	e.print(header + "\n" + out)
	return nil
}

// expr runs a find, patch or peek given on the command line after the pid.
func (e *executor) expr(cmd service.CmdType) error {
	out, err := service.Exec(e.prowler, cmd, e.ctx.Args().Tail())
	if err != nil {
		return err
	}

	e.print(out)
	return nil
}

func (e *executor) dump() error {
	args := e.ctx.Args()
	name, path := args.Get(1), args.Get(2)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := e.prowler.Dump(name, f)
	if err != nil {
		os.Remove(path)
		return err
	}

	e.print(fmt.Sprintf("%s: %d chunks of %d bytes, %d unreadable, written to %s",
		snap.Region, len(snap.Entries), snap.ChunkSize, snap.Failed, path))
	return f.Close()
}

func (e *executor) newServer(listener net.Listener) service.Server {
	switch e.cfg.Server.Kind {
	case config.ServerGRPC:
		return grpc.NewServer(listener, e.prowler)
	case config.ServerHTTP:
		fallthrough
	default:
		return http.NewServer(listener, e.prowler)
	}
}

func newClient(kind, addr string) (service.Client, error) {
	switch kind {
	case config.ServerGRPC:
		return grpc.NewClient(addr)
	case config.ServerHTTP:
		fallthrough
	default:
		return http.NewClient(addr)
	}
}

// serve runs the remote service until SIGINT or SIGTERM.
func (e *executor) serve() error {
	addr := e.cfg.Server.Addr
	if e.ctx.IsSet("addr") {
		addr = e.ctx.String("addr")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	server := e.newServer(listener)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e.print(fmt.Sprintf("%s server for pid %d listening on %s", e.cfg.Server.Kind, e.pid, server.Addr()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Run)
	g.Go(func() error {
		<-ctx.Done()
		return server.Stop()
	})
	return g.Wait()
}

// attach serves on a loopback port and drives the service from a terminal
// until the user exits.
func (e *executor) attach() error {
	listener, err := net.Listen("tcp", defaultAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	server := e.newServer(listener)

	var g errgroup.Group
	g.Go(server.Run)
	g.Go(func() error {
		defer server.Stop()

		addr := listener.Addr().String()
		if !utils.WaitListen(addr, waitServer) {
			return fmt.Errorf("server on %s did not come up", addr)
		}
		return e.connect(addr)
	})
	return g.Wait()
}

func (e *executor) connect(addr string) error {
	client, err := newClient(e.cfg.Server.Kind, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	term := terminal.New(client)
	return term.Run()
}
