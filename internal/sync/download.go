package sync

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/marcus/trigtrack/internal/models"
)

// download fetches the bulk status feed and replaces the marker read cache
// with it, all inside one transaction: a mid-stream failure leaves the cache
// exactly as it was before the download started.
//
// Feed format: line 1 is a decimal row count, then one "condition\tmarkerID"
// line per marker. A blank line ends the feed early without error.
func (e *Engine) download(ctx context.Context, stats *Stats) error {
	username, _ := e.tokens.Credentials()

	path := statusPath + "?username=" + url.QueryEscape(username)
	stream, err := e.client.GetCompressedStream(context.WithoutCancel(ctx), path)
	if err != nil {
		return fmt.Errorf("open status feed: %w", err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read status feed: %w", err)
		}
		return fmt.Errorf("status feed is empty")
	}
	count, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
	if err != nil {
		return fmt.Errorf("parse feed row count %q: %w", scanner.Text(), err)
	}

	// Persisted immediately, outside the refresh transaction: the count
	// pre-sizes the progress bar even if this download fails.
	if err := e.store.SetExpectedRows(count); err != nil {
		return fmt.Errorf("persist expected rows: %w", err)
	}
	e.reporter.SetMax(count)

	tx, err := e.store.BeginCacheRefresh()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.Clear(); err != nil {
		return fmt.Errorf("clear marker cache: %w", err)
	}

	var applied int64
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}

		cond, markerID, err := parseFeedLine(line)
		if err != nil {
			return err
		}
		if err := tx.Apply(cond, markerID); err != nil {
			return fmt.Errorf("apply cache row %d: %w", markerID, err)
		}

		applied++
		e.reporter.Progress(applied)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read status feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache refresh: %w", err)
	}

	if applied != count {
		slog.Debug("feed row count mismatch", "announced", count, "applied", applied)
	}
	stats.RowsDownloaded = applied
	return nil
}

// parseFeedLine splits one "condition\tmarkerID" feed line.
func parseFeedLine(line string) (models.Condition, int64, error) {
	code, idStr, ok := strings.Cut(line, "\t")
	if !ok {
		return "", 0, fmt.Errorf("malformed feed line %q", line)
	}
	cond, err := models.ParseCondition(strings.TrimSpace(code))
	if err != nil {
		return "", 0, fmt.Errorf("feed line %q: %w", line, err)
	}
	markerID, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("feed line %q: bad marker id: %w", line, err)
	}
	return cond, markerID, nil
}
