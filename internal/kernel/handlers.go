package kernel

import (
	"context"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/interp"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/observability"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/wire"
)

// Version is the implementation version reported in kernel_info.
const Version = "0.1.0"

type executeContent struct {
	Code   string `json:"code"`
	Silent bool   `json:"silent"`
}

type shutdownContent struct {
	Restart bool `json:"restart"`
}

func (s *Server) handleKernelInfo(ctx context.Context, req *wire.Message) (any, error) {
	return map[string]any{
		"status":                 "ok",
		"protocol_version":       wire.ProtocolVersion,
		"implementation":         "groovy",
		"implementation_version": Version,
		"language_info": map[string]any{
			"name":           "groovy",
			"version":        "4.0",
			"mimetype":       "text/x-groovy",
			"file_extension": ".groovy",
		},
		"banner": s.banner,
	}, nil
}

// handleExecute brackets the execution with busy/idle status on iopub
// and streams captured output in between. The bracket order is a
// protocol invariant: busy first, idle strictly after everything else.
func (s *Server) handleExecute(ctx context.Context, req *wire.Message) (any, error) {
	var content executeContent
	if err := req.Content(&content); err != nil {
		return nil, err
	}

	count := s.session.Counter()
	if !content.Silent {
		count = s.session.NextExecution()
	}

	s.session.SetState(StateBusy)
	s.publisher.Status(req, StateBusy)

	execCtx, cancel := context.WithCancel(ctx)
	s.setInFlight(cancel)
	res, err := s.executor.Execute(execCtx, content.Code)
	s.clearInFlight()
	cancel()
	if err != nil {
		res = interp.Result{
			OK:         false,
			ErrName:    "ExecutorFailure",
			ErrMessage: err.Error(),
		}
	}

	if !content.Silent {
		if res.Stdout != "" {
			s.publisher.Stream(req, "stdout", res.Stdout)
		}
		if res.Stderr != "" {
			s.publisher.Stream(req, "stderr", res.Stderr)
		}
	}

	var reply map[string]any
	if res.OK {
		if !content.Silent && res.Value != "" {
			s.publisher.Result(req, count, res.Value)
		}
		observability.RecordExecution("ok")
		reply = map[string]any{
			"status":           "ok",
			"execution_count":  count,
			"payload":          []any{},
			"user_expressions": map[string]any{},
		}
	} else {
		if !content.Silent {
			s.publisher.Error(req, res.ErrName, res.ErrMessage, res.Traceback)
		}
		observability.RecordExecution("error")
		reply = map[string]any{
			"status":          "error",
			"execution_count": count,
			"ename":           res.ErrName,
			"evalue":          res.ErrMessage,
			"traceback":       tracebackOrEmpty(res.Traceback),
		}
	}

	s.publisher.Status(req, StateIdle)
	s.session.SetState(StateIdle)

	if !content.Silent {
		s.session.Record(HistoryEntry{
			Count:  count,
			Source: content.Code,
			Value:  res.Value,
			OK:     res.OK,
		})
	}
	return reply, nil
}

func (s *Server) handleShutdown(ctx context.Context, req *wire.Message) (any, error) {
	var content shutdownContent
	if err := req.Content(&content); err != nil {
		return nil, err
	}
	s.log.Info().Bool("restart", content.Restart).Msg("shutdown requested")
	return map[string]any{
		"status":  "ok",
		"restart": content.Restart,
	}, nil
}

// handleInterrupt cancels the in-flight execution context. Termination
// is best effort: an executor that ignores its context keeps running.
func (s *Server) handleInterrupt(ctx context.Context, req *wire.Message) (any, error) {
	if s.interruptInFlight() {
		s.log.Info().Msg("in-flight execution interrupted")
	} else {
		s.log.Debug().Msg("interrupt requested with nothing in flight")
	}
	return map[string]any{"status": "ok"}, nil
}

func tracebackOrEmpty(traceback []string) []string {
	if traceback == nil {
		return []string{}
	}
	return traceback
}
