package kernel

import (
	"context"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/observability"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/wire"
)

// sender is the socket slice the router writes replies to.
type sender interface {
	Send(zmq4.Msg) error
}

// HandlerFunc produces the reply content for one request.
type HandlerFunc func(ctx context.Context, req *wire.Message) (any, error)

// Router decodes, verifies, and dispatches inbound command-channel
// messages, then writes the signed reply back with the request's
// identity frames intact.
type Router struct {
	channel  string
	signer   *wire.Signer
	session  string
	log      zerolog.Logger
	handlers map[RequestType]HandlerFunc
}

func NewRouter(channel string, signer *wire.Signer, session string, logger zerolog.Logger) *Router {
	return &Router{
		channel:  channel,
		signer:   signer,
		session:  session,
		log:      logger.With().Str("channel", channel).Logger(),
		handlers: make(map[RequestType]HandlerFunc),
	}
}

// Handle registers fn for t. Registering RequestUnknown is a no-op;
// unknown types are always dropped.
func (r *Router) Handle(t RequestType, fn HandlerFunc) {
	if t == RequestUnknown {
		return
	}
	r.handlers[t] = fn
}

// Dispatch processes one inbound frame set and writes the reply to
// sock. Malformed, forged, and unknown messages are dropped with a log
// line and no reply; the client-side timeout covers them. Returns the
// request type when a reply was sent, RequestUnknown otherwise.
func (r *Router) Dispatch(ctx context.Context, sock sender, frames [][]byte) RequestType {
	defer func() {
		if rec := recover(); rec != nil {
			observability.RecordDropped(r.channel, "panic")
			r.log.Error().Interface("panic", rec).Msg("handler panicked, message dropped")
		}
	}()

	msg, err := wire.Decode(frames)
	if err != nil {
		observability.RecordDropped(r.channel, "malformed")
		r.log.Warn().Err(err).Msg("dropping malformed message")
		return RequestUnknown
	}

	if !r.signer.Verify(msg.Signature, msg.Parts()...) {
		observability.RecordDropped(r.channel, "signature")
		r.log.Warn().Err(ErrSignatureMismatch).Msg("dropping unauthenticated message")
		return RequestUnknown
	}

	hdr, err := msg.Header()
	if err != nil {
		observability.RecordDropped(r.channel, "malformed")
		r.log.Warn().Err(err).Msg("dropping message with unreadable header")
		return RequestUnknown
	}
	observability.RecordReceived(r.channel, hdr.MsgType)

	reqType := requestTypeOf(hdr.MsgType)
	fn, ok := r.handlers[reqType]
	if reqType == RequestUnknown || !ok {
		observability.RecordDropped(r.channel, "unknown_type")
		r.log.Warn().Str("msg_type", hdr.MsgType).Err(ErrUnknownMessageType).Msg("no handler for message type")
		return RequestUnknown
	}

	content, err := fn(ctx, msg)
	if err != nil {
		observability.RecordDropped(r.channel, "handler")
		r.log.Error().Str("msg_type", hdr.MsgType).Err(err).Msg("handler failed")
		return RequestUnknown
	}

	reply, err := wire.NewMessage(
		wire.NewHeader(reqType.replyType(), r.session, hdr.Username),
		msg.HeaderBytes,
		content,
	)
	if err != nil {
		r.log.Error().Str("msg_type", hdr.MsgType).Err(err).Msg("reply marshal failed")
		return RequestUnknown
	}
	reply.Identities = msg.Identities

	if err := sock.Send(zmq4.NewMsgFrom(wire.EncodeSigned(reply, r.signer)...)); err != nil {
		r.log.Error().Str("msg_type", reqType.replyType()).Err(err).Msg("reply send failed")
		return RequestUnknown
	}
	observability.RecordReply(r.channel, reqType.replyType())
	return reqType
}
