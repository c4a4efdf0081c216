package kernel

import "errors"

// Wire message type strings.
const (
	MsgKernelInfoRequest = "kernel_info_request"
	MsgExecuteRequest    = "execute_request"
	MsgShutdownRequest   = "shutdown_request"
	MsgInterruptRequest  = "interrupt_request"

	MsgKernelInfoReply = "kernel_info_reply"
	MsgExecuteReply    = "execute_reply"
	MsgShutdownReply   = "shutdown_reply"
	MsgInterruptReply  = "interrupt_reply"

	MsgStatus        = "status"
	MsgStream        = "stream"
	MsgExecuteResult = "execute_result"
	MsgError         = "error"
)

var (
	ErrSignatureMismatch  = errors.New("kernel: signature mismatch")
	ErrUnknownMessageType = errors.New("kernel: unknown message type")
)

// RequestType enumerates the requests the kernel understands. Inbound
// types outside the enum map to RequestUnknown and are dropped, never
// dispatched.
type RequestType int

const (
	RequestUnknown RequestType = iota
	RequestKernelInfo
	RequestExecute
	RequestShutdown
	RequestInterrupt
)

func requestTypeOf(msgType string) RequestType {
	switch msgType {
	case MsgKernelInfoRequest:
		return RequestKernelInfo
	case MsgExecuteRequest:
		return RequestExecute
	case MsgShutdownRequest:
		return RequestShutdown
	case MsgInterruptRequest:
		return RequestInterrupt
	default:
		return RequestUnknown
	}
}

// replyType is the msg_type of the reply for this request.
func (t RequestType) replyType() string {
	switch t {
	case RequestKernelInfo:
		return MsgKernelInfoReply
	case RequestExecute:
		return MsgExecuteReply
	case RequestShutdown:
		return MsgShutdownReply
	case RequestInterrupt:
		return MsgInterruptReply
	default:
		return ""
	}
}

func (t RequestType) String() string {
	switch t {
	case RequestKernelInfo:
		return MsgKernelInfoRequest
	case RequestExecute:
		return MsgExecuteRequest
	case RequestShutdown:
		return MsgShutdownRequest
	case RequestInterrupt:
		return MsgInterruptRequest
	default:
		return "unknown"
	}
}
