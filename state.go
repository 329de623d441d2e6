// this file deals with the global state of the system
package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// maxAdvanceAttempts bounds how often Advance refetches when an activation
// lands between its unlocked fetch and its commit.
const maxAdvanceAttempts = 3

// Show is the authoritative "which song, which line" pointer of the live
// presentation. All mutations go through Activate, Advance and Reset, which
// are serialized; repository calls are made outside the lock.
type Show struct {
	songRepo SongRepository
	lineRepo LineRepository
	feeds    *Feeds
	logger   zerolog.Logger

	mu         sync.RWMutex
	songID     int64
	active     bool
	line       uint32
	generation uint64
}

func NewShow(songRepo SongRepository, lineRepo LineRepository, feeds *Feeds, logger zerolog.Logger) *Show {
	return &Show{
		songRepo: songRepo,
		lineRepo: lineRepo,
		feeds:    feeds,
		logger:   logger.With().Str("component", "show").Logger(),
	}
}

// Activate makes songID the live song with no line shown and publishes its
// snapshot. Nothing changes and nothing is published if the song is missing
// or the store fails.
func (s *Show) Activate(ctx context.Context, songID int64) error {
	exists, err := s.songRepo.SongExists(ctx, songID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	song, err := s.songRepo.GetSongByID(ctx, songID)
	if err != nil {
		return err
	}
	lines, err := s.lineRepo.FetchLines(ctx, songID)
	if err != nil {
		return err
	}
	snapshot := Snapshot{ID: song.SongID, Title: song.Name, Lines: lines}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.songID = songID
	s.active = true
	s.line = 0
	s.generation++
	s.feeds.Load.Publish(snapshot)

	showTransitions.WithLabelValues("activate").Inc()
	s.logger.Info().Int64("song_id", songID).Int("lines", len(lines)).Msg("song activated")
	return nil
}

// Advance moves the line pointer by delta, clamped to [0, N], and publishes
// the resulting index and text.
func (s *Show) Advance(ctx context.Context, delta int) (Cue, error) {
	for attempt := 0; attempt < maxAdvanceAttempts; attempt++ {
		s.mu.RLock()
		songID, active, generation := s.songID, s.active, s.generation
		s.mu.RUnlock()

		if !active {
			return Cue{}, ErrNoActiveSong
		}

		lines, err := s.lineRepo.FetchLines(ctx, songID)
		if err != nil {
			return Cue{}, err
		}

		cue, ok := s.commitAdvance(generation, delta, lines)
		if ok {
			return cue, nil
		}
		s.logger.Debug().Int("attempt", attempt+1).Msg("active song changed while fetching lines, retrying")
	}
	return Cue{}, ErrActiveSongChanged
}

func (s *Show) commitAdvance(generation uint64, delta int, lines []Line) (Cue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		return Cue{}, false
	}

	count := len(lines)
	if int64(s.line) > int64(count) {
		// lines were deleted while the song was live
		s.logger.Error().Uint32("line_index", s.line).Int("line_count", count).Msg("line index out of range, clamping")
		s.line = uint32(count)
	}

	s.line = clampIndex(s.line, delta, count)
	cue := cueFor(s.line, lines)
	s.publishCue(cue)

	showTransitions.WithLabelValues("advance").Inc()
	s.logger.Debug().Int64("song_id", s.songID).Int("delta", delta).Uint32("line_index", s.line).Msg("advanced")
	return cue, true
}

// Reset clears the line pointer, keeping the song selection, and publishes
// blank text with no index. It always succeeds.
func (s *Show) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.line = 0
	s.publishCue(Cue{Index: NoIndex})
	showTransitions.WithLabelValues("reset").Inc()
	s.logger.Debug().Msg("reset")
}

// publishCue must be called with s.mu held so topic order follows commit order.
func (s *Show) publishCue(cue Cue) {
	if cue.Index.Valid {
		s.feeds.Index.Publish(cue.Index)
		s.feeds.Line.Publish(cue.Text)
		return
	}
	s.feeds.Line.Publish("")
	s.feeds.Index.Publish(NoIndex)
}

// Status returns a consistent copy of the show pointer.
func (s *Show) Status() ShowStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ShowStatus{LineIndex: s.line}
	if s.active {
		id := s.songID
		st.SongID = &id
	}
	return st
}

// ActiveSong returns the live song id or ErrNoActiveSong.
func (s *Show) ActiveSong() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return 0, ErrNoActiveSong
	}
	return s.songID, nil
}
