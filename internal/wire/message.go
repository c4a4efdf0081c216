package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Delimiter separates routing identities from message parts on the wire.
const Delimiter = "<IDS|MSG>"

// ProtocolVersion is the Jupyter messaging protocol version spoken here.
const ProtocolVersion = "5.3"

var (
	delimiterFrame = []byte(Delimiter)
	emptyDict      = []byte("{}")
)

// Header is the Jupyter message header.
type Header struct {
	MsgID    string `json:"msg_id"`
	Session  string `json:"session"`
	Username string `json:"username"`
	Date     string `json:"date"`
	MsgType  string `json:"msg_type"`
	Version  string `json:"version"`
}

// NewHeader builds a fresh header with a unique message id.
func NewHeader(msgType, session, username string) Header {
	return Header{
		MsgID:    uuid.NewString(),
		Session:  session,
		Username: username,
		Date:     time.Now().UTC().Format(time.RFC3339),
		MsgType:  msgType,
		Version:  ProtocolVersion,
	}
}

// Message is one multipart wire message. The four JSON parts are kept
// as raw bytes so that re-encoding a decoded message reproduces the
// original frames byte for byte.
type Message struct {
	Identities    [][]byte
	Signature     string
	HeaderBytes   []byte
	ParentBytes   []byte
	MetadataBytes []byte
	ContentBytes  []byte
	Buffers       [][]byte
}

// NewMessage builds an outbound message. parent carries the verbatim
// header bytes of the originating request, or nil for uncorrelated
// messages. content is marshaled once here.
func NewMessage(h Header, parent []byte, content any) (*Message, error) {
	headerBytes, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	if len(parent) == 0 {
		parent = emptyDict
	}
	return &Message{
		HeaderBytes:   headerBytes,
		ParentBytes:   parent,
		MetadataBytes: emptyDict,
		ContentBytes:  contentBytes,
	}, nil
}

// Header decodes the header part.
func (m *Message) Header() (Header, error) {
	var h Header
	if err := json.Unmarshal(m.HeaderBytes, &h); err != nil {
		return Header{}, fmt.Errorf("%w: bad header json: %v", ErrMalformedMessage, err)
	}
	return h, nil
}

// Content decodes the content part into out.
func (m *Message) Content(out any) error {
	if err := json.Unmarshal(m.ContentBytes, out); err != nil {
		return fmt.Errorf("%w: bad content json: %v", ErrMalformedMessage, err)
	}
	return nil
}

// Parts returns the four JSON parts in signing order.
func (m *Message) Parts() [][]byte {
	return [][]byte{m.HeaderBytes, m.ParentBytes, m.MetadataBytes, m.ContentBytes}
}

// Decode parses raw multipart frames into a Message. Frames before the
// delimiter are identities; the delimiter must be followed by the
// signature and the four JSON parts; anything after those is kept as
// binary buffers.
func Decode(frames [][]byte) (*Message, error) {
	delim := -1
	for i, f := range frames {
		if bytes.Equal(f, delimiterFrame) {
			delim = i
			break
		}
	}
	if delim < 0 {
		return nil, fmt.Errorf("%w: missing %s delimiter", ErrMalformedMessage, Delimiter)
	}
	rest := frames[delim+1:]
	if len(rest) < 5 {
		return nil, fmt.Errorf("%w: %d frames after delimiter, need signature and four parts", ErrMalformedMessage, len(rest))
	}
	return &Message{
		Identities:    frames[:delim],
		Signature:     string(rest[0]),
		HeaderBytes:   rest[1],
		ParentBytes:   rest[2],
		MetadataBytes: rest[3],
		ContentBytes:  rest[4],
		Buffers:       rest[5:],
	}, nil
}

// Encode frames m for the wire. The signature field is emitted as-is;
// it is never recomputed here.
func Encode(m *Message) [][]byte {
	frames := make([][]byte, 0, len(m.Identities)+6+len(m.Buffers))
	frames = append(frames, m.Identities...)
	frames = append(frames, delimiterFrame)
	frames = append(frames, []byte(m.Signature))
	frames = append(frames, m.HeaderBytes, m.ParentBytes, m.MetadataBytes, m.ContentBytes)
	frames = append(frames, m.Buffers...)
	return frames
}

// EncodeSigned frames m with a digest freshly computed by signer over
// the four JSON parts.
func EncodeSigned(m *Message, signer *Signer) [][]byte {
	m.Signature = signer.Sign(m.Parts()...)
	return Encode(m)
}
