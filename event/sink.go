package event

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Record is the envelope the dispatcher hands to sinks.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Name      Name      `json:"event"`
	UserID    string    `json:"user_id,omitempty"`
	Payload   Event     `json:"payload,omitempty"`
}

// Sink receives dispatched records.
type Sink interface {
	Write(ctx context.Context, rec Record)
}

// NoOpSink discards records.
type NoOpSink struct{}

func (NoOpSink) Write(context.Context, Record) {}

// ChannelSink forwards records into a buffered channel.
type ChannelSink struct {
	records chan Record
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{records: make(chan Record, buffer)}
}

func (s *ChannelSink) Write(ctx context.Context, rec Record) {
	select {
	case s.records <- rec:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Records() <-chan Record {
	return s.records
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Write(_ context.Context, rec Record) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LogSink writes each record as an info-level zerolog entry.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, rec Record) {
	if s == nil {
		return
	}
	s.logger.Info().
		Time("occurred_at", rec.Timestamp).
		Str("event", string(rec.Name)).
		Str("user_id", rec.UserID).
		Interface("payload", rec.Payload).
		Msg("domain event")
}
