package transport

import (
	"context"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"
)

// echoSocket is the slice of zmq4.Socket the heartbeat loop needs.
type echoSocket interface {
	Recv() (zmq4.Msg, error)
	Send(zmq4.Msg) error
}

// Heartbeat echoes every received frame set back verbatim. It runs in
// its own goroutine, fully independent of the command loop: a stuck
// execution must not cause heartbeat timeouts. Returns when the
// context is done or the socket fails.
func Heartbeat(ctx context.Context, sock echoSocket, logger zerolog.Logger) {
	for {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug().Err(err).Msg("heartbeat recv failed")
			}
			return
		}
		if err := sock.Send(msg); err != nil {
			if ctx.Err() == nil {
				logger.Debug().Err(err).Msg("heartbeat send failed")
			}
			return
		}
	}
}
