package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/himanshub16/showline-backend/broadcast"
	"github.com/rs/zerolog"
)

const (
	FeedLine  = "line"
	FeedIndex = "index"
	FeedLoad  = "load"
	FeedReady = "ready"
)

// Feeds holds one broadcast topic per live feed.
type Feeds struct {
	Line  *broadcast.Topic[string]
	Index *broadcast.Topic[LineIndex]
	Load  *broadcast.Topic[Snapshot]
	Ready *broadcast.Topic[bool]
}

func NewFeeds(capacity int) *Feeds {
	return &Feeds{
		Line:  broadcast.NewTopic[string](FeedLine, capacity),
		Index: broadcast.NewTopic[LineIndex](FeedIndex, capacity),
		Load:  broadcast.NewTopic[Snapshot](FeedLoad, capacity),
		Ready: broadcast.NewTopic[bool](FeedReady, capacity),
	}
}

// Open subscribes a new stream session to the named feed.
func (f *Feeds) Open(feed string, keepAlive time.Duration, logger zerolog.Logger) (Session, error) {
	switch feed {
	case FeedLine:
		return newStreamSession(f.Line, encodeText, keepAlive, logger), nil
	case FeedIndex:
		return newStreamSession(f.Index, encodeIndex, keepAlive, logger), nil
	case FeedLoad:
		return newStreamSession(f.Load, encodeSnapshot, keepAlive, logger), nil
	case FeedReady:
		return newStreamSession(f.Ready, encodeReady, keepAlive, logger), nil
	}
	return nil, fmt.Errorf("%w: feed %q", ErrNotFound, feed)
}

// Close ends every open session on every feed.
func (f *Feeds) Close() {
	f.Line.Close()
	f.Index.Close()
	f.Load.Close()
	f.Ready.Close()
}

func encodeText(text string) (string, error) {
	return text, nil
}

func encodeIndex(i LineIndex) (string, error) {
	return i.String(), nil
}

func encodeSnapshot(s Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeReady(ready bool) (string, error) {
	return strconv.FormatBool(ready), nil
}
