package kernel

import (
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/observability"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/wire"
)

// ExecutionState is the process-wide kernel state broadcast on every
// transition.
type ExecutionState string

const (
	StateStarting ExecutionState = "starting"
	StateBusy     ExecutionState = "busy"
	StateIdle     ExecutionState = "idle"
)

// Publisher is the sole owner of iopub writes. A single PUB socket is
// not safe for concurrent senders, so every publish is serialized
// through one mutex.
type Publisher struct {
	mu      sync.Mutex
	sock    sender
	signer  *wire.Signer
	session string
	log     zerolog.Logger
}

func NewPublisher(sock sender, signer *wire.Signer, session string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		sock:    sock,
		signer:  signer,
		session: session,
		log:     logger.With().Str("channel", "iopub").Logger(),
	}
}

// Status broadcasts an execution-state transition. parent is nil only
// for the one-time starting announcement at boot.
func (p *Publisher) Status(parent *wire.Message, state ExecutionState) {
	p.publish(MsgStatus, parent, map[string]any{
		"execution_state": string(state),
	})
}

// Stream broadcasts captured stdout or stderr text.
func (p *Publisher) Stream(parent *wire.Message, name, text string) {
	p.publish(MsgStream, parent, map[string]any{
		"name": name,
		"text": text,
	})
}

// Result broadcasts the value of a completed execution.
func (p *Publisher) Result(parent *wire.Message, count int, value string) {
	p.publish(MsgExecuteResult, parent, map[string]any{
		"execution_count": count,
		"data":            map[string]any{"text/plain": value},
		"metadata":        map[string]any{},
	})
}

// Error broadcasts a failed execution.
func (p *Publisher) Error(parent *wire.Message, ename, evalue string, traceback []string) {
	if traceback == nil {
		traceback = []string{}
	}
	p.publish(MsgError, parent, map[string]any{
		"ename":     ename,
		"evalue":    evalue,
		"traceback": traceback,
	})
}

func (p *Publisher) publish(msgType string, parent *wire.Message, content any) {
	var parentBytes []byte
	if parent != nil {
		parentBytes = parent.HeaderBytes
	}
	msg, err := wire.NewMessage(wire.NewHeader(msgType, p.session, "kernel"), parentBytes, content)
	if err != nil {
		p.log.Error().Str("msg_type", msgType).Err(err).Msg("broadcast marshal failed")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.sock.Send(zmq4.NewMsgFrom(wire.EncodeSigned(msg, p.signer)...)); err != nil {
		p.log.Error().Str("msg_type", msgType).Err(err).Msg("broadcast send failed")
		return
	}
	observability.RecordBroadcast(msgType)
}
