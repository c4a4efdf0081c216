// Package connection parses Jupyter connection files and derives
// socket endpoints from them.
package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrInvalidConnection = errors.New("connection: invalid connection file")

// Descriptor is the parsed connection file. Immutable once parsed;
// unknown fields in the file are ignored.
type Descriptor struct {
	Transport       string `json:"transport"`
	IP              string `json:"ip"`
	ControlPort     int    `json:"control_port"`
	ShellPort       int    `json:"shell_port"`
	StdinPort       int    `json:"stdin_port"`
	HBPort          int    `json:"hb_port"`
	IOPubPort       int    `json:"iopub_port"`
	SignatureScheme string `json:"signature_scheme"`
	Key             string `json:"key"`
}

// Load reads and parses the connection file at path.
func Load(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("connection load failed (%s): %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a connection file, applies defaults, and validates it.
func Parse(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidConnection, err)
	}
	if d.Transport == "" {
		d.Transport = "tcp"
	}
	if d.IP == "" {
		d.IP = "127.0.0.1"
	}
	if d.SignatureScheme == "" {
		d.SignatureScheme = "hmac-sha256"
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (d Descriptor) Validate() error {
	switch d.Transport {
	case "tcp", "ipc":
	default:
		return fmt.Errorf("%w: unsupported transport %q", ErrInvalidConnection, d.Transport)
	}
	if strings.TrimSpace(d.IP) == "" {
		return fmt.Errorf("%w: missing ip", ErrInvalidConnection)
	}
	ports := map[string]int{
		"control_port": d.ControlPort,
		"shell_port":   d.ShellPort,
		"stdin_port":   d.StdinPort,
		"hb_port":      d.HBPort,
		"iopub_port":   d.IOPubPort,
	}
	for name, port := range ports {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%w: %s out of range: %d", ErrInvalidConnection, name, port)
		}
	}
	return nil
}

// Endpoint derives the bind endpoint for one port. A port of 0 under
// tcp binds an ephemeral port.
func (d Descriptor) Endpoint(port int) string {
	if d.Transport == "ipc" {
		return fmt.Sprintf("ipc://%s-%d", d.IP, port)
	}
	return fmt.Sprintf("tcp://%s:%d", d.IP, port)
}
