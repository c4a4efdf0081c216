package kernel

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/connection"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/interp"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/transport"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/wire"
)

// startTestKernel binds a server on ephemeral loopback ports and runs
// it until the test ends.
func startTestKernel(t *testing.T) (*Server, map[transport.Channel]int, <-chan error) {
	t.Helper()
	desc := connection.Descriptor{
		Transport:       "tcp",
		IP:              "127.0.0.1",
		SignatureScheme: "hmac-sha256",
		Key:             "test-key",
	}
	executor := interp.Func(func(ctx context.Context, source string) (interp.Result, error) {
		return interp.Result{OK: true, Value: source}, nil
	})
	srv, err := NewServer(desc, Options{Executor: executor, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Bind(); err != nil {
		t.Fatalf("bind: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, srv.Ports(), runErr
}

func dialDealer(t *testing.T, port int) zmq4.Socket {
	t.Helper()
	sock := zmq4.NewDealer(context.Background())
	if err := sock.Dial(fmt.Sprintf("tcp://127.0.0.1:%d", port)); err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { sock.Close() })
	return sock
}

func TestServerKernelInfoRoundTrip(t *testing.T) {
	srv, ports, _ := startTestKernel(t)
	shell := dialDealer(t, ports[transport.ChannelShell])

	frames := signedRequest(t, srv.signer, MsgKernelInfoRequest, map[string]any{})
	if err := shell.Send(zmq4.NewMsgFrom(frames...)); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg, err := shell.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	reply, err := wire.Decode(msg.Frames)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	hdr, err := reply.Header()
	if err != nil {
		t.Fatalf("reply header: %v", err)
	}
	if hdr.MsgType != MsgKernelInfoReply {
		t.Fatalf("reply msg_type: got %q", hdr.MsgType)
	}
}

func TestServerHeartbeatEcho(t *testing.T) {
	_, ports, _ := startTestKernel(t)

	req := zmq4.NewReq(context.Background())
	if err := req.Dial(fmt.Sprintf("tcp://127.0.0.1:%d", ports[transport.ChannelHeartbeat])); err != nil {
		t.Fatalf("dial hb: %v", err)
	}
	defer req.Close()

	ping := []byte{0x01, 0x02, 0x03}
	if err := req.Send(zmq4.NewMsg(ping)); err != nil {
		t.Fatalf("send ping: %v", err)
	}
	echo, err := req.Recv()
	if err != nil {
		t.Fatalf("recv echo: %v", err)
	}
	if string(echo.Bytes()) != string(ping) {
		t.Fatalf("echo mismatch: got %v", echo.Bytes())
	}
}

func TestServerShutdownStopsRunLoop(t *testing.T) {
	srv, ports, runErr := startTestKernel(t)
	control := dialDealer(t, ports[transport.ChannelControl])

	frames := signedRequest(t, srv.signer, MsgShutdownRequest, map[string]any{"restart": false})
	if err := control.Send(zmq4.NewMsgFrom(frames...)); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg, err := control.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	reply, err := wire.Decode(msg.Frames)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	hdr, _ := reply.Header()
	if hdr.MsgType != MsgShutdownReply {
		t.Fatalf("reply msg_type: got %q", hdr.MsgType)
	}

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run loop did not stop after shutdown")
	}
}

func TestServerCloseIdempotent(t *testing.T) {
	srv, _, _ := startTestKernel(t)
	if err := srv.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
