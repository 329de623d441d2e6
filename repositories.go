package main

import "context"

type SongRepository interface {
	SongExists(ctx context.Context, songID int64) (bool, error)
	GetSongByID(ctx context.Context, songID int64) (*Song, error)
	ListSongs(ctx context.Context) ([]Song, error)
	InsertSong(ctx context.Context, name string, lines []Line) (int64, error)
	close() error
}

type LineRepository interface {
	// FetchLines returns the song's lines in display order, or ErrNotFound
	// when the song does not exist.
	FetchLines(ctx context.Context, songID int64) ([]Line, error)
	UpdateLine(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, lineID int64) error
	close() error
}

// Repository is a backend serving both roles.
type Repository interface {
	SongRepository
	LineRepository
}
