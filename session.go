package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/himanshub16/showline-backend/broadcast"
	"github.com/rs/zerolog"
)

const defaultKeepAlive = 15 * time.Second

// EventWriter is the transport side of a stream session.
type EventWriter interface {
	WriteEvent(data string) error
	KeepAlive() error
}

// Session streams one feed to one connected display until the context ends,
// the writer fails or the feed closes.
type Session interface {
	ID() string
	Feed() string
	Run(ctx context.Context, w EventWriter) error
	Close()
}

type StreamSession[T any] struct {
	id        string
	feed      string
	sub       *broadcast.Subscription[T]
	encode    func(T) (string, error)
	keepAlive time.Duration
	logger    zerolog.Logger
}

func newStreamSession[T any](topic *broadcast.Topic[T], encode func(T) (string, error), keepAlive time.Duration, logger zerolog.Logger) *StreamSession[T] {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	id := uuid.New().String()
	return &StreamSession[T]{
		id:        id,
		feed:      topic.Name(),
		sub:       topic.Subscribe(),
		encode:    encode,
		keepAlive: keepAlive,
		logger:    logger.With().Str("session", id).Str("feed", topic.Name()).Logger(),
	}
}

func (s *StreamSession[T]) ID() string {
	return s.id
}

func (s *StreamSession[T]) Feed() string {
	return s.feed
}

// Run delivers every value published after the session was opened. A keepalive
// is written whenever the feed has been idle for the keepalive interval.
func (s *StreamSession[T]) Run(ctx context.Context, w EventWriter) error {
	defer s.Close()

	idle := time.NewTicker(s.keepAlive)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-idle.C:
			if err := w.KeepAlive(); err != nil {
				return err
			}

		case v, ok := <-s.sub.C():
			if !ok {
				s.logger.Debug().Msg("feed closed")
				return nil
			}
			if missed := s.sub.TakeMissed(); missed > 0 {
				s.logger.Warn().Uint64("missed", missed).Msg("subscriber lagged, messages dropped")
				subscriberOverflow.WithLabelValues(s.feed).Add(float64(missed))
			}

			data, err := s.encode(v)
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to encode event")
				continue
			}
			if err := w.WriteEvent(data); err != nil {
				return err
			}
			idle.Reset(s.keepAlive)
		}
	}
}

func (s *StreamSession[T]) Close() {
	s.sub.Close()
}

// sseWriter frames events as text/event-stream.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sw := &sseWriter{w: w}
	sw.flusher, _ = w.(http.Flusher)
	sw.flush()
	return sw
}

func (s *sseWriter) WriteEvent(data string) error {
	var b strings.Builder
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return s.write(b.String())
}

func (s *sseWriter) KeepAlive() error {
	return s.write(": keep-alive\n\n")
}

func (s *sseWriter) write(frame string) error {
	if _, err := s.w.Write([]byte(frame)); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *sseWriter) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
