package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sqlRepository holds the queries shared by the Postgres and SQLite
// backends. Queries are written with ? placeholders and rebound per driver.
type sqlRepository struct {
	db *sqlx.DB
}

const lineColumns = `line_id, song_id, line, position, cam_position, cam_look_at,
	keep_n_last, rotation, cam_rotation, end_position, cam_end_position, cam_end_look_at`

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
}

func (r *sqlRepository) SongExists(ctx context.Context, songID int64) (bool, error) {
	var exists bool
	query := r.db.Rebind(`select exists(select 1 from songs where song_id = ?)`)
	if err := r.db.GetContext(ctx, &exists, query, songID); err != nil {
		return false, wrapStoreErr(err)
	}
	return exists, nil
}

func (r *sqlRepository) GetSongByID(ctx context.Context, songID int64) (*Song, error) {
	song := &Song{}
	query := r.db.Rebind(`select song_id, name from songs where song_id = ?`)
	if err := r.db.GetContext(ctx, song, query, songID); err != nil {
		return nil, wrapStoreErr(err)
	}
	return song, nil
}

func (r *sqlRepository) ListSongs(ctx context.Context) ([]Song, error) {
	songs := make([]Song, 0)
	if err := r.db.SelectContext(ctx, &songs, `select song_id, name from songs order by song_id`); err != nil {
		return nil, wrapStoreErr(err)
	}
	return songs, nil
}

func (r *sqlRepository) InsertSong(ctx context.Context, name string, lines []Line) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	defer tx.Rollback()

	var songID int64
	query := tx.Rebind(`insert into songs (name) values (?) returning song_id`)
	if err := tx.GetContext(ctx, &songID, query, name); err != nil {
		return 0, wrapStoreErr(err)
	}

	insertLine := tx.Rebind(`
	  insert into lines (song_id, line, position, cam_position, cam_look_at, keep_n_last,
		rotation, cam_rotation, end_position, cam_end_position, cam_end_look_at)
	  values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, l := range lines {
		_, err := tx.ExecContext(ctx, insertLine, songID, l.Text, l.Position, l.CamPosition,
			l.CamLookAt, l.KeepNLast, l.Rotation, l.CamRotation, l.EndPosition,
			l.CamEndPosition, l.CamEndLookAt)
		if err != nil {
			return 0, wrapStoreErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapStoreErr(err)
	}
	return songID, nil
}

func (r *sqlRepository) FetchLines(ctx context.Context, songID int64) ([]Line, error) {
	exists, err := r.SongExists(ctx, songID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	lines := make([]Line, 0)
	query := r.db.Rebind(`select ` + lineColumns + ` from lines where song_id = ? order by line_id`)
	if err := r.db.SelectContext(ctx, &lines, query, songID); err != nil {
		return nil, wrapStoreErr(err)
	}
	return lines, nil
}

func (r *sqlRepository) UpdateLine(ctx context.Context, line Line) error {
	query := r.db.Rebind(`
	  update lines
	  set line = ?, position = ?, cam_position = ?, cam_look_at = ?, keep_n_last = ?,
		rotation = ?, cam_rotation = ?, end_position = ?, cam_end_position = ?, cam_end_look_at = ?
	  where line_id = ?`)

	res, err := r.db.ExecContext(ctx, query, line.Text, line.Position, line.CamPosition,
		line.CamLookAt, line.KeepNLast, line.Rotation, line.CamRotation, line.EndPosition,
		line.CamEndPosition, line.CamEndLookAt, line.LineID)
	if err != nil {
		return wrapStoreErr(err)
	}
	return affectedOne(res)
}

func (r *sqlRepository) DeleteLine(ctx context.Context, lineID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`delete from lines where line_id = ?`), lineID)
	if err != nil {
		return wrapStoreErr(err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlRepository) createTables(tables []string) error {
	for _, t := range tables {
		if _, err := r.db.Exec(t); err != nil {
			return fmt.Errorf("failed to exec stmt: %w", err)
		}
	}
	return nil
}

func (r *sqlRepository) close() error {
	return r.db.Close()
}
