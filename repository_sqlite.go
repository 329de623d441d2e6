package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite3", filePath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", filePath, err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	songsTable := `
	  create table if not exists songs (
		song_id integer primary key autoincrement,
		name text not null
	  );`
	linesTable := `
	  create table if not exists lines (
		line_id integer primary key autoincrement,
		song_id integer not null references songs(song_id) on delete cascade,
		line text not null,
		position text not null,
		cam_position text not null,
		cam_look_at text not null,
		keep_n_last integer not null default 0,
		rotation text,
		cam_rotation text,
		end_position text,
		cam_end_position text,
		cam_end_look_at text
	  );`

	r := &SQLiteRepository{sqlRepository{db: db}}
	if err := r.createTables([]string{songsTable, linesTable}); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}
