package main

import "errors"

var (
	// ErrNotFound indicates the requested song or line does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveSong indicates a navigation request arrived before any song
	// was activated.
	ErrNoActiveSong = errors.New("no active song")

	// ErrRepositoryUnavailable wraps transient failures reaching the store.
	// Show state is left untouched and the caller may retry.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrActiveSongChanged indicates the active song kept changing while an
	// advance was fetching its lines.
	ErrActiveSongChanged = errors.New("active song changed during advance")

	// ErrInvalidSong indicates a song submission without a name.
	ErrInvalidSong = errors.New("song name is required")
)
