package ics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"caltime/internal/models"
)

const fetchTimeout = 30 * time.Second

// Load reads a calendar from a local file path or an http(s)/webcal URL
// and returns its events. The encoding argument selects the source text
// encoding: "" or "utf-8" for UTF-8, "latin-1"/"iso-8859-1" for ISO
// 8859-1 (some calendar exports still use it).
func Load(ctx context.Context, logger *slog.Logger, source, encoding string, opts Options) ([]*models.Event, error) {
	r, closer, err := open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	r, err = decodeEncoding(r, encoding)
	if err != nil {
		return nil, err
	}

	events, err := Parse(r, opts)
	if err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", source, err)
	}

	logger.Info("Loaded calendar.", "source", source, "events", len(events))
	return events, nil
}

func open(ctx context.Context, source string) (io.Reader, io.Closer, error) {
	if isURL(source) {
		return fetch(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, nil, fmt.Errorf("open calendar file: %w", err)
	}
	return f, f, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "webcal://")
}

func fetch(ctx context.Context, url string) (io.Reader, io.Closer, error) {
	// webcal is just http(s) with a different scheme.
	url = strings.Replace(url, "webcal://", "https://", 1)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("fetch calendar: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("fetch calendar: status %d", resp.StatusCode)
	}
	return resp.Body, closerFunc(func() error {
		defer cancel()
		return resp.Body.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func decodeEncoding(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin-1", "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
