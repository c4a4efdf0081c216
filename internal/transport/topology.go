package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog/log"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/connection"
)

// Channel names one of the five kernel sockets.
type Channel string

const (
	ChannelShell     Channel = "shell"
	ChannelControl   Channel = "control"
	ChannelStdin     Channel = "stdin"
	ChannelIOPub     Channel = "iopub"
	ChannelHeartbeat Channel = "hb"
)

var ErrBindFailed = errors.New("transport: bind failed")

// Topology owns the five kernel sockets. Construction opens them;
// Bind listens on every configured endpoint. No other component may
// write to a socket directly: router and publisher borrow the handles
// through the accessors.
type Topology struct {
	desc   connection.Descriptor
	cancel context.CancelFunc

	shell     zmq4.Socket
	control   zmq4.Socket
	stdin     zmq4.Socket
	iopub     zmq4.Socket
	heartbeat zmq4.Socket

	ports     map[Channel]int
	closeOnce sync.Once
	closeErr  error
}

// NewTopology opens the five sockets without binding them.
func NewTopology(desc connection.Descriptor) *Topology {
	ctx, cancel := context.WithCancel(context.Background())
	return &Topology{
		desc:      desc,
		cancel:    cancel,
		shell:     zmq4.NewRouter(ctx),
		control:   zmq4.NewRouter(ctx),
		stdin:     zmq4.NewRouter(ctx),
		iopub:     zmq4.NewPub(ctx),
		heartbeat: zmq4.NewRep(ctx),
		ports:     make(map[Channel]int, 5),
	}
}

// Bind listens on all five endpoints. Partial binding is not a
// supported state: the first failure closes everything already open
// and reports ErrBindFailed.
func (t *Topology) Bind() error {
	binds := []struct {
		channel Channel
		sock    zmq4.Socket
		port    int
	}{
		{ChannelShell, t.shell, t.desc.ShellPort},
		{ChannelControl, t.control, t.desc.ControlPort},
		{ChannelStdin, t.stdin, t.desc.StdinPort},
		{ChannelIOPub, t.iopub, t.desc.IOPubPort},
		{ChannelHeartbeat, t.heartbeat, t.desc.HBPort},
	}
	for _, b := range binds {
		endpoint := t.desc.Endpoint(b.port)
		if err := b.sock.Listen(endpoint); err != nil {
			t.Close()
			return fmt.Errorf("%w: %s on %s: %v", ErrBindFailed, b.channel, endpoint, err)
		}
		t.ports[b.channel] = resolvePort(b.sock, b.port)
		log.Debug().
			Str("channel", string(b.channel)).
			Str("endpoint", endpoint).
			Int("port", t.ports[b.channel]).
			Msg("socket bound")
	}
	return nil
}

// resolvePort reports the actual bound port when the configured port
// was the ephemeral wildcard 0.
func resolvePort(sock zmq4.Socket, configured int) int {
	if configured != 0 {
		return configured
	}
	addr := sock.Addr()
	if addr == nil {
		return 0
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return configured
}

// Ports reports the bound port per channel. Meaningful after Bind.
func (t *Topology) Ports() map[Channel]int {
	out := make(map[Channel]int, len(t.ports))
	for ch, port := range t.ports {
		out[ch] = port
	}
	return out
}

func (t *Topology) Shell() zmq4.Socket     { return t.shell }
func (t *Topology) Control() zmq4.Socket   { return t.control }
func (t *Topology) Stdin() zmq4.Socket     { return t.stdin }
func (t *Topology) IOPub() zmq4.Socket     { return t.iopub }
func (t *Topology) Heartbeat() zmq4.Socket { return t.heartbeat }

// Close tears the sockets down exactly once, in reverse creation
// order, then releases the shared socket context. A failure closing
// one socket never prevents closing the rest.
func (t *Topology) Close() error {
	t.closeOnce.Do(func() {
		closes := []struct {
			channel Channel
			sock    zmq4.Socket
		}{
			{ChannelHeartbeat, t.heartbeat},
			{ChannelIOPub, t.iopub},
			{ChannelStdin, t.stdin},
			{ChannelControl, t.control},
			{ChannelShell, t.shell},
		}
		var errs []error
		for _, c := range closes {
			if err := c.sock.Close(); err != nil {
				log.Warn().
					Str("channel", string(c.channel)).
					Err(err).
					Msg("socket close failed")
				errs = append(errs, fmt.Errorf("%s: %w", c.channel, err))
			}
		}
		t.cancel()
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}
