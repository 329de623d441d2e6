package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// client talks to a running showline server.
type client struct {
	baseURL string
	http    *http.Client
	token   string
}

type showStatus struct {
	SongID    *int64 `json:"song_id"`
	LineIndex uint32 `json:"line_index"`
}

type cue struct {
	LineIndex *uint32 `json:"line_index"`
	Line      string  `json:"line"`
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

func (c *client) login(ctx context.Context, key string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{"key": key}, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.token = resp.Token
	return nil
}

func (c *client) activate(ctx context.Context, songID int64) error {
	return c.do(ctx, http.MethodPost, "/api/song/set", map[string]int64{"id": songID}, nil)
}

func (c *client) advance(ctx context.Context, skips int) (cue, error) {
	var out cue
	err := c.do(ctx, http.MethodPost, "/api/song/next", map[string]int{"skips": skips}, &out)
	return out, err
}

func (c *client) reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reset", nil, nil)
}

func (c *client) status(ctx context.Context) (showStatus, error) {
	var out showStatus
	err := c.do(ctx, http.MethodGet, "/api/show/status", nil, &out)
	return out, err
}

// watch copies every event of feed to out until ctx ends or the server
// closes the connection.
func (c *client) watch(ctx context.Context, feed string, out io.Writer) error {
	u, err := url.Parse(c.baseURL + "/ws/" + url.PathEscape(feed))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n", msg); err != nil {
			return err
		}
	}
}

func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	} else if method == http.MethodPost {
		payload = strings.NewReader("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var e struct {
			Message string `json:"message"`
		}
		json.NewDecoder(res.Body).Decode(&e)
		return fmt.Errorf("%s %s: %s (%d)", method, path, e.Message, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
