package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	sqlRepository
}

func NewPostgresRepository(dbUrl string) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// make sure the required tables exist
	songsTable := `
	  create table if not exists songs (
		song_id serial primary key,
		name text not null
	  );`
	linesTable := `
	  create table if not exists lines (
		line_id serial primary key,
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

	r := &PostgresRepository{sqlRepository{db: db}}
	if err := r.createTables([]string{songsTable, linesTable}); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}
