// this file defines the data structures to be used throught
package main

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// BlankLine is the reserved line text that keeps its slot in the sequence
// but is displayed as empty.
const BlankLine = "---"

type Song struct {
	SongID int64  `json:"id" db:"song_id"`
	Name   string `json:"name" db:"name"`
}

// Line is one entry of a song's script together with its staging metadata.
// The staging fields are carried through to displays untouched.
type Line struct {
	LineID      int64    `json:"id" db:"line_id"`
	SongID      int64    `json:"song_id" db:"song_id"`
	Text        string   `json:"line" db:"line"`
	Position    Vector3  `json:"position" db:"position"`
	CamLookAt   Vector3  `json:"cam_look_at" db:"cam_look_at"`
	CamPosition Vector3  `json:"cam_position" db:"cam_position"`
	Color       *Color   `json:"color" db:"-"`
	KeepNLast   int32    `json:"keep_n_last" db:"keep_n_last"`
	Rotation    *Vector3 `json:"rotation" db:"rotation"`
	CamRotation *Vector3 `json:"cam_rotation" db:"cam_rotation"`

	// animation targets
	EndPosition    *Vector3 `json:"end_position" db:"end_position"`
	CamEndPosition *Vector3 `json:"cam_end_position" db:"cam_end_position"`
	CamEndLookAt   *Vector3 `json:"cam_end_look_at" db:"cam_end_look_at"`
}

// NewLine builds a line with the default camera placement used for freshly
// submitted scripts.
func NewLine(text string) Line {
	return Line{
		Text:        text,
		CamPosition: Vector3{X: 0, Y: 10, Z: 150},
	}
}

type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Value stores the vector as JSON text so both SQL backends share a column type.
func (v Vector3) Value() (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *Vector3) Scan(src interface{}) error {
	switch s := src.(type) {
	case string:
		return json.Unmarshal([]byte(s), v)
	case []byte:
		return json.Unmarshal(s, v)
	case nil:
		*v = Vector3{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Vector3", src)
}

type Color struct {
	Color string `json:"color"`
}

// Snapshot is the whole song as delivered to displays when it goes live.
type Snapshot struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// LineIndex is a 1-based line position, or absent when nothing is shown.
type LineIndex struct {
	Value uint32
	Valid bool
}

func SomeIndex(i uint32) LineIndex {
	return LineIndex{Value: i, Valid: true}
}

// NoIndex is the absent marker published on reset or when moving to 0.
var NoIndex = LineIndex{}

// String renders the index the way the index feed sends it.
func (i LineIndex) String() string {
	if !i.Valid {
		return "NULL"
	}
	return strconv.FormatUint(uint64(i.Value), 10)
}

func (i LineIndex) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("null"), nil
	}
	return []byte(i.String()), nil
}

// ShowStatus is a read-only copy of the active show pointer.
type ShowStatus struct {
	SongID    *int64 `json:"song_id"`
	LineIndex uint32 `json:"line_index"`
}
