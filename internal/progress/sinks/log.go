// Package sinks provides progress.Sink implementations.
package sinks

import (
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/progress"
)

// LogSink writes structured logs for each progress event. This is the sink a
// terminal consumer reads while a long enrichment runs.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event with structured fields.
func (s *LogSink) Consume(evt progress.Event) error {
	fields := []zap.Field{
		zap.String("run_id", evt.RunID.String()),
		zap.String("stage", string(evt.Stage)),
	}
	if evt.State != "" {
		fields = append(fields, zap.String("state", evt.State))
	}
	if evt.Station != "" {
		fields = append(fields, zap.String("station", evt.Station))
	}
	if evt.Count > 0 {
		fields = append(fields, zap.Int("count", evt.Count))
	}
	if evt.Dur > 0 {
		fields = append(fields, zap.Duration("dur", evt.Dur))
	}
	if evt.Note != "" {
		fields = append(fields, zap.String("note", evt.Note))
	}
	s.logger.Info("scrape progress", fields...)
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close() error { return nil }
