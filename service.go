package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Service manages the song catalogue. It never touches the live show.
type Service interface {
	AddSong(ctx context.Context, name, rawLines string) (int64, error)
	GetSong(ctx context.Context, songID int64) (Snapshot, error)
	ListSongs(ctx context.Context) ([]Song, error)
	EditLine(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, lineID int64) error
	close()
}

type ServiceImpl struct {
	songRepo SongRepository
	lineRepo LineRepository
	logger   zerolog.Logger
}

func NewService(songRepo SongRepository, lineRepo LineRepository, logger zerolog.Logger) *ServiceImpl {
	return &ServiceImpl{
		songRepo: songRepo,
		lineRepo: lineRepo,
		logger:   logger.With().Str("component", "catalogue").Logger(),
	}
}

// AddSong stores a song whose script is one line per row of rawLines.
// Rows are trimmed; empty rows are kept so positions match the source text.
func (s *ServiceImpl) AddSong(ctx context.Context, name, rawLines string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidSong
	}

	rows := strings.Split(rawLines, "\n")
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, NewLine(strings.TrimSpace(row)))
	}

	id, err := s.songRepo.InsertSong(ctx, name, lines)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("song_id", id).Str("name", name).Int("lines", len(lines)).Msg("song added")
	return id, nil
}

func (s *ServiceImpl) GetSong(ctx context.Context, songID int64) (Snapshot, error) {
	song, err := s.songRepo.GetSongByID(ctx, songID)
	if err != nil {
		return Snapshot{}, err
	}
	lines, err := s.lineRepo.FetchLines(ctx, songID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: song.SongID, Title: song.Name, Lines: lines}, nil
}

func (s *ServiceImpl) ListSongs(ctx context.Context) ([]Song, error) {
	return s.songRepo.ListSongs(ctx)
}

func (s *ServiceImpl) EditLine(ctx context.Context, line Line) error {
	if err := s.lineRepo.UpdateLine(ctx, line); err != nil {
		return err
	}
	s.logger.Info().Int64("line_id", line.LineID).Msg("line updated")
	return nil
}

func (s *ServiceImpl) DeleteLine(ctx context.Context, lineID int64) error {
	if err := s.lineRepo.DeleteLine(ctx, lineID); err != nil {
		return err
	}
	s.logger.Info().Int64("line_id", lineID).Msg("line deleted")
	return nil
}

func (s *ServiceImpl) close() {
	if err := s.lineRepo.close(); err != nil {
		s.logger.Warn().Err(err).Msg("closing line repository")
	}
	// both roles are usually served by one backend
	if closer, ok := s.songRepo.(LineRepository); ok && closer == s.lineRepo {
		return
	}
	if err := s.songRepo.close(); err != nil {
		s.logger.Warn().Err(err).Msg("closing song repository")
	}
}
