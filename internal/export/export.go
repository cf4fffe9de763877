// Package export writes Jira issues matching a JQL query to local files,
// one file per issue, optionally downloading attachment binaries alongside.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jiratools/jiratools/internal/jira"
)

// Format selects the issue file format.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q (must be text or yaml)", s)
}

// ext returns the file extension for the format.
func (f Format) ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".txt"
}

// Exporter drives the issue export pipeline.
type Exporter struct {
	Client              *jira.Client
	Dir                 string
	Format              Format
	DownloadAttachments bool

	// OnMessage and OnWarning receive progress and per-issue problem
	// reports. Nil callbacks are ignored.
	OnMessage func(msg string)
	OnWarning func(msg string)
}

// Run exports every issue matching jql into the destination directory and
// returns the number of issues written. A search failure or an
// authentication failure (401/403) is fatal and aborts the run; files
// already written stay intact. Any other failure downloading one issue's
// attachments is reported and skipped, and the run continues.
func (e *Exporter) Run(ctx context.Context, jql string) (int, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}

	it := e.Client.Search(ctx, jql, jira.SearchOptions{})
	count := 0
	for {
		issue, err := it.Next()
		if err != nil {
			return count, err
		}
		if issue == nil {
			break
		}
		if err := e.exportIssue(ctx, issue); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (e *Exporter) exportIssue(ctx context.Context, issue *jira.Issue) error {
	path := filepath.Join(e.Dir, issue.Key+e.Format.ext())
	browseURL := e.Client.BrowseURL(issue.Key)

	var data []byte
	var err error
	switch e.Format {
	case FormatYAML:
		data, err = RenderYAML(issue, browseURL)
	default:
		data, err = []byte(RenderText(issue, browseURL)), nil
	}
	if err != nil {
		return fmt.Errorf("render issue %s: %w", issue.Key, err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write issue %s: %w", issue.Key, err)
	}
	e.message(fmt.Sprintf("issue %s -> %s", issue.Key, path))

	if e.DownloadAttachments && len(issue.Fields.Attachments) > 0 {
		if err := e.downloadAttachments(ctx, issue); err != nil {
			if jira.IsAuth(err) {
				return fmt.Errorf("issue %s: %w", issue.Key, err)
			}
			e.warn(fmt.Sprintf("issue %s: %v", issue.Key, err))
		}
	}
	return nil
}

func (e *Exporter) message(msg string) {
	if e.OnMessage != nil {
		e.OnMessage(msg)
	}
}

func (e *Exporter) warn(msg string) {
	if e.OnWarning != nil {
		e.OnWarning(msg)
	}
}

// writeFileAtomic writes data to path via a temp file in the same directory
// and an atomic rename, so an interrupted run never leaves a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()        // Best effort: may already be closed before rename
		_ = os.Remove(tmpPath) // Best effort: may already be renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	// Close before rename (required on Windows; double-close in defer is harmless)
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}

	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("set file permissions: %w", err)
	}
	return nil
}
