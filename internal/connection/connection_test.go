package connection

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleFile = `{
	"transport": "tcp",
	"ip": "127.0.0.1",
	"control_port": 5001,
	"shell_port": 5002,
	"stdin_port": 5003,
	"hb_port": 5004,
	"iopub_port": 5005,
	"signature_scheme": "hmac-sha256",
	"key": "deadbeef",
	"kernel_name": "groovy"
}`

func TestParseSample(t *testing.T) {
	d, err := Parse([]byte(sampleFile))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.ShellPort != 5002 || d.ControlPort != 5001 || d.StdinPort != 5003 || d.HBPort != 5004 || d.IOPubPort != 5005 {
		t.Fatalf("ports not parsed: %+v", d)
	}
	if d.Key != "deadbeef" {
		t.Fatalf("key: got %q", d.Key)
	}
	if d.SignatureScheme != "hmac-sha256" {
		t.Fatalf("scheme: got %q", d.SignatureScheme)
	}
}

func TestParseDefaults(t *testing.T) {
	d, err := Parse([]byte(`{"shell_port": 1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Transport != "tcp" {
		t.Fatalf("transport default: got %q", d.Transport)
	}
	if d.IP != "127.0.0.1" {
		t.Fatalf("ip default: got %q", d.IP)
	}
	if d.SignatureScheme != "hmac-sha256" {
		t.Fatalf("scheme default: got %q", d.SignatureScheme)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"bad transport", `{"transport":"udp"}`},
		{"port out of range", `{"shell_port":70000}`},
		{"negative port", `{"hb_port":-1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); !errors.Is(err, ErrInvalidConnection) {
				t.Fatalf("expected ErrInvalidConnection, got %v", err)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	tcp := Descriptor{Transport: "tcp", IP: "10.0.0.5"}
	if got := tcp.Endpoint(5002); got != "tcp://10.0.0.5:5002" {
		t.Fatalf("tcp endpoint: got %q", got)
	}
	ipc := Descriptor{Transport: "ipc", IP: "/tmp/kernel"}
	if got := ipc.Endpoint(3); got != "ipc:///tmp/kernel-3" {
		t.Fatalf("ipc endpoint: got %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.json")
	if err := os.WriteFile(path, []byte(sampleFile), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.IOPubPort != 5005 {
		t.Fatalf("iopub port: got %d", d.IOPubPort)
	}
}
