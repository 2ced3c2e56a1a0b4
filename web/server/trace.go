package server

import (
	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/logging"
)

type loggingSpanExporter struct {
	logger logging.Logger
}

// NewLoggingSpanExporter returns an exporter writing every finished span as a debug line.
func NewLoggingSpanExporter(logger logging.Logger) trace.Exporter {
	return &loggingSpanExporter{logger: logger}
}

func (e *loggingSpanExporter) ExportSpan(s *trace.SpanData) {
	e.logger.Debugw("span",
		"name", s.Name,
		"trace_id", s.TraceID.String(),
		"span_id", s.SpanID.String(),
		"duration", s.EndTime.Sub(s.StartTime),
		"status", s.Status.Message)
}
