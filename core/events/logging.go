package events

import "go.uber.org/zap"

// LogSink writes engine events to a structured logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink. A nil logger is replaced with a no-op.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// OnSearchCompleted logs a completed aggregation at info level.
func (s *LogSink) OnSearchCompleted(e SearchCompleted) {
	sources := make([]string, 0, len(e.Sources))
	for _, src := range e.Sources {
		sources = append(sources, src.String())
	}
	s.logger.Info("search completed",
		zap.String("search_id", e.SearchID),
		zap.String("query", e.Query),
		zap.Int("results", e.ResultCount),
		zap.Duration("elapsed", e.Elapsed),
		zap.Strings("sources", sources),
		zap.Bool("degraded", e.Degraded),
	)
}

// OnBudgetExceeded logs a budget overrun at warn level.
func (s *LogSink) OnBudgetExceeded(e BudgetExceeded) {
	s.logger.Warn("performance budget exceeded",
		zap.String("operation", e.Operation),
		zap.Duration("elapsed", e.Elapsed),
		zap.Duration("budget", e.Budget),
	)
}
