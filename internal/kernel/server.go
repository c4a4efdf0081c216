package kernel

import (
	"context"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/connection"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/interp"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/transport"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/wire"
)

// Options configures a Server.
type Options struct {
	Banner   string
	Executor interp.Executor
	Logger   zerolog.Logger
}

// Server is the kernel composition root. It owns the topology, the
// per-channel routers, the iopub publisher, and the session state.
//
// Concurrency model: shell and stdin messages are dispatched serially
// by the Run loop, which is the only goroutine mutating the session.
// Control has its own dispatch goroutine so interrupt and shutdown are
// serviced while shell is busy executing; its handlers touch only the
// mutex-guarded in-flight cancel func. Heartbeat is fully independent.
type Server struct {
	desc     connection.Descriptor
	topo     *transport.Topology
	signer   *wire.Signer
	session  *Session
	executor interp.Executor
	banner   string
	log      zerolog.Logger

	shell     *Router
	control   *Router
	stdin     *Router
	publisher *Publisher

	mu       sync.Mutex
	inFlight context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	closeOnce    sync.Once
	closeErr     error
}

// NewServer wires the kernel together. Sockets are opened here but not
// bound; call Bind before Run.
func NewServer(desc connection.Descriptor, opts Options) (*Server, error) {
	signer, err := wire.NewSigner(desc.SignatureScheme, desc.Key)
	if err != nil {
		return nil, err
	}
	session := NewSession()
	topo := transport.NewTopology(desc)

	s := &Server{
		desc:       desc,
		topo:       topo,
		signer:     signer,
		session:    session,
		executor:   opts.Executor,
		banner:     opts.Banner,
		log:        opts.Logger.With().Str("session", session.ID).Logger(),
		shutdownCh: make(chan struct{}),
	}
	if s.executor == nil {
		s.executor = interp.NewSubprocess("", nil)
	}
	if s.banner == "" {
		s.banner = "Apache Groovy kernel"
	}

	s.publisher = NewPublisher(topo.IOPub(), signer, session.ID, s.log)
	s.shell = NewRouter(string(transport.ChannelShell), signer, session.ID, s.log)
	s.control = NewRouter(string(transport.ChannelControl), signer, session.ID, s.log)
	s.stdin = NewRouter(string(transport.ChannelStdin), signer, session.ID, s.log)

	s.shell.Handle(RequestKernelInfo, s.handleKernelInfo)
	s.shell.Handle(RequestExecute, s.handleExecute)
	s.shell.Handle(RequestShutdown, s.handleShutdown)

	// Control gets no execute handler: it stays responsive while shell
	// is busy, which is what makes interrupts useful.
	s.control.Handle(RequestKernelInfo, s.handleKernelInfo)
	s.control.Handle(RequestShutdown, s.handleShutdown)
	s.control.Handle(RequestInterrupt, s.handleInterrupt)

	return s, nil
}

// Bind listens on all five endpoints. A failure is fatal to startup
// and leaves no sockets open.
func (s *Server) Bind() error {
	return s.topo.Bind()
}

// Ports reports bound ports per channel, useful after ephemeral binds.
func (s *Server) Ports() map[transport.Channel]int {
	return s.topo.Ports()
}

// Session exposes the session state for inspection.
func (s *Server) Session() *Session {
	return s.session
}

type inboundMsg struct {
	router *Router
	sock   zmq4.Socket
	frames [][]byte
}

// Run blocks until a shutdown request is processed or ctx is done.
// Teardown runs on every exit path.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.publisher.Status(nil, StateStarting)
	s.session.SetState(StateIdle)

	go transport.Heartbeat(ctx, s.topo.Heartbeat(), s.log)
	go s.controlLoop(ctx)

	inbound := make(chan inboundMsg, 16)
	go s.pump(ctx, s.shell, s.topo.Shell(), inbound)
	go s.pump(ctx, s.stdin, s.topo.Stdin(), inbound)

	s.log.Info().Msg("kernel ready")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.shutdownCh:
			return nil
		case in := <-inbound:
			if in.router.Dispatch(ctx, in.sock, in.frames) == RequestShutdown {
				s.signalShutdown()
				return nil
			}
		}
	}
}

// pump feeds one socket's messages into the serial dispatch loop.
func (s *Server) pump(ctx context.Context, router *Router, sock zmq4.Socket, out chan<- inboundMsg) {
	for {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug().Str("channel", router.channel).Err(err).Msg("recv failed")
			}
			return
		}
		select {
		case out <- inboundMsg{router: router, sock: sock, frames: msg.Frames}:
		case <-ctx.Done():
			return
		}
	}
}

// controlLoop dispatches control messages independently of shell so an
// interrupt is never starved by the execution it wants to cancel.
func (s *Server) controlLoop(ctx context.Context) {
	sock := s.topo.Control()
	for {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug().Err(err).Msg("control recv failed")
			}
			return
		}
		if s.control.Dispatch(ctx, sock, msg.Frames) == RequestShutdown {
			s.signalShutdown()
			return
		}
	}
}

func (s *Server) signalShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

// Close tears the topology down exactly once; later calls return the
// first result.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.topo.Close()
		s.log.Info().Msg("kernel stopped")
	})
	return s.closeErr
}

func (s *Server) setInFlight(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = cancel
}

func (s *Server) clearInFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = nil
}

// interruptInFlight cancels the current execution, reporting whether
// one was running.
func (s *Server) interruptInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		return false
	}
	s.inFlight()
	return true
}
