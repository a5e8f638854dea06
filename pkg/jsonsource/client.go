// Package jsonsource reads calendar events from JSON files, either a single
// array or a stream of objects, so exports from any tool can be analyzed.
package jsonsource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/model"
)

// SourceName tags events read from JSON.
const SourceName = "json"

// Client reads events from Path; "-" means standard input.
type Client struct {
	Path  string
	stdin io.Reader
}

func NewClient(path string) *Client {
	return &Client{Path: path, stdin: os.Stdin}
}

// FetchEvents returns the events that overlap [from, to). All-day and
// malformed records are kept so the analysis can place or report them.
func (c *Client) FetchEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r io.Reader
	if c.Path == "-" {
		r = c.stdin
	} else {
		f, err := os.Open(c.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open events file: %w", err)
		}
		defer f.Close()
		r = f
	}

	events, err := ParseEvents(r)
	if err != nil {
		return nil, err
	}

	out := events[:0]
	for _, ev := range events {
		if inRange(ev, from, to) {
			out = append(out, ev)
		}
	}
	log.Debug("read json events", "path", c.Path, "total", len(events), "in_range", len(out))
	return out, nil
}

func inRange(ev model.Event, from, to time.Time) bool {
	if ev.Start.IsZero() || ev.End.IsZero() || ev.AllDay {
		return true
	}
	return ev.Start.Before(to) && ev.End.After(from)
}

// ParseEvents decodes either a JSON array of records or a stream of
// whitespace-separated record objects.
func ParseEvents(r io.Reader) ([]model.Event, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var records []Record
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode events json: %w", err)
		}
	} else {
		decoder := json.NewDecoder(br)
		for {
			var rec Record
			if err := decoder.Decode(&rec); err != nil {
				if err == io.EOF {
					break
				}
				return nil, fmt.Errorf("failed to decode event json: %w", err)
			}
			records = append(records, rec)
		}
	}

	events := make([]model.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, rec.Event())
	}
	return events, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
