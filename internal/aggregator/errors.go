package aggregator

import "yqhp/rpc-checker/pkg/types"

// errorTracker 按首次出现顺序统计不同的错误消息。
type errorTracker struct {
	order  []string
	counts map[string]*types.ErrorSummary
}

func newErrorTracker() *errorTracker {
	return &errorTracker{counts: make(map[string]*types.ErrorSummary)}
}

func (e *errorTracker) record(message string, kind types.ErrorKind) {
	if message == "" {
		message = "unknown error"
	}
	if s, ok := e.counts[message]; ok {
		s.Count++
		return
	}
	e.order = append(e.order, message)
	e.counts[message] = &types.ErrorSummary{Message: message, Kind: kind, Count: 1}
}

func (e *errorTracker) summaries() []types.ErrorSummary {
	if len(e.order) == 0 {
		return nil
	}
	out := make([]types.ErrorSummary, 0, len(e.order))
	for _, msg := range e.order {
		out = append(out, *e.counts[msg])
	}
	return out
}
