package kernel

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/wire"
)

func msgTypes(t *testing.T, sock *fakeSock) []string {
	t.Helper()
	var out []string
	for _, msg := range sock.messages(t) {
		hdr, err := msg.Header()
		if err != nil {
			t.Fatalf("broadcast header: %v", err)
		}
		out = append(out, hdr.MsgType)
	}
	return out
}

func TestPublisherCorrelatesToParent(t *testing.T) {
	signer := testSigner(t)
	sock := &fakeSock{}
	pub := NewPublisher(sock, signer, "kernel-session", zerolog.Nop())

	frames := signedRequest(t, signer, MsgExecuteRequest, map[string]any{"code": "1"}, []byte("id"))
	req, err := wire.Decode(frames)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	pub.Status(req, StateBusy)
	pub.Stream(req, "stdout", "hello\n")
	pub.Result(req, 1, "2")
	pub.Error(req, "MissingMethodException", "no such method", []string{"line 1"})
	pub.Status(req, StateIdle)

	broadcasts := sock.messages(t)
	if len(broadcasts) != 5 {
		t.Fatalf("broadcasts: got %d want 5", len(broadcasts))
	}
	for i, b := range broadcasts {
		if len(b.Identities) != 0 {
			t.Fatalf("broadcast %d carries identity frames", i)
		}
		if string(b.ParentBytes) != string(req.HeaderBytes) {
			t.Fatalf("broadcast %d parent_header is not the request header", i)
		}
		if !signer.Verify(b.Signature, b.Parts()...) {
			t.Fatalf("broadcast %d is not signed", i)
		}
	}

	want := []string{MsgStatus, MsgStream, MsgExecuteResult, MsgError, MsgStatus}
	got := msgTypes(t, sock)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("broadcast order: got %v want %v", got, want)
		}
	}
}

func TestPublisherStartingWithoutParent(t *testing.T) {
	signer := testSigner(t)
	sock := &fakeSock{}
	pub := NewPublisher(sock, signer, "kernel-session", zerolog.Nop())

	pub.Status(nil, StateStarting)

	broadcasts := sock.messages(t)
	if len(broadcasts) != 1 {
		t.Fatalf("broadcasts: got %d want 1", len(broadcasts))
	}
	if string(broadcasts[0].ParentBytes) != "{}" {
		t.Fatalf("uncorrelated status should carry empty parent, got %s", broadcasts[0].ParentBytes)
	}
	var content map[string]any
	if err := broadcasts[0].Content(&content); err != nil {
		t.Fatalf("content: %v", err)
	}
	if content["execution_state"] != "starting" {
		t.Fatalf("execution_state: got %v", content["execution_state"])
	}
}
