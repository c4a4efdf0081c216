package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	messagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groovykernel",
			Subsystem: "wire",
			Name:      "messages_received_total",
			Help:      "Messages received on a command channel.",
		},
		[]string{"channel", "msg_type"},
	)
	messagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groovykernel",
			Subsystem: "wire",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped before dispatch.",
		},
		[]string{"channel", "reason"},
	)
	repliesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groovykernel",
			Subsystem: "wire",
			Name:      "replies_sent_total",
			Help:      "Replies written back to a command channel.",
		},
		[]string{"channel", "msg_type"},
	)
	broadcastsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groovykernel",
			Subsystem: "iopub",
			Name:      "broadcasts_sent_total",
			Help:      "Broadcast messages published on iopub.",
		},
		[]string{"msg_type"},
	)
	executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groovykernel",
			Subsystem: "exec",
			Name:      "executions_total",
			Help:      "Execute requests by outcome.",
		},
		[]string{"status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			messagesReceived,
			messagesDropped,
			repliesSent,
			broadcastsSent,
			executions,
		)
	})
}

func RecordReceived(channel, msgType string) {
	RegisterMetrics()
	messagesReceived.WithLabelValues(channel, msgType).Inc()
}

func RecordDropped(channel, reason string) {
	RegisterMetrics()
	messagesDropped.WithLabelValues(channel, reason).Inc()
}

func RecordReply(channel, msgType string) {
	RegisterMetrics()
	repliesSent.WithLabelValues(channel, msgType).Inc()
}

func RecordBroadcast(msgType string) {
	RegisterMetrics()
	broadcastsSent.WithLabelValues(msgType).Inc()
}

func RecordExecution(status string) {
	RegisterMetrics()
	executions.WithLabelValues(status).Inc()
}
