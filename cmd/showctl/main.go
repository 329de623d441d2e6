package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
)

const usage = `usage: showctl [-server url] [-key operator-key] <command>

commands:
  activate <song-id>   make a song live
  next [n]             advance n lines (default 1)
  prev [n]             go back n lines (default 1)
  reset                blank the displays
  status               print the live song and line
  watch <feed>         print events of line|index|load|ready
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "showctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("showctl", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	server := fs.String("server", envOr("SHOWLINE_SERVER", "http://127.0.0.1:3000"), "showline server url")
	key := fs.String("key", os.Getenv("SHOWLINE_AUTH_OPERATOR_KEY"), "operator key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	c := newClient(*server)
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "status":
		st, err := c.status(ctx)
		if err != nil {
			return err
		}
		if st.SongID == nil {
			fmt.Fprintln(stdout, "no active song")
			return nil
		}
		fmt.Fprintf(stdout, "song %d line %d\n", *st.SongID, st.LineIndex)
		return nil

	case "watch":
		if len(rest) != 1 {
			return errors.New("watch needs a feed name")
		}
		return c.watch(ctx, rest[0], stdout)

	case "activate", "next", "prev", "reset":
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err := c.login(ctx, *key); err != nil {
		return err
	}

	switch cmd {
	case "activate":
		if len(rest) != 1 {
			return errors.New("activate needs a song id")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid song id %q", rest[0])
		}
		return c.activate(ctx, id)

	case "next", "prev":
		n := 1
		if len(rest) > 0 {
			v, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("invalid count %q", rest[0])
			}
			n = v
		}
		if cmd == "prev" {
			n = -n
		}
		cu, err := c.advance(ctx, n)
		if err != nil {
			return err
		}
		if cu.LineIndex == nil {
			fmt.Fprintln(stdout, "line -")
			return nil
		}
		fmt.Fprintf(stdout, "line %d: %s\n", *cu.LineIndex, cu.Line)
		return nil
	}
	return c.reset(ctx)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
