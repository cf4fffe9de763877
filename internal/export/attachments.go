package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jiratools/jiratools/internal/jira"
)

// downloadAttachments writes every attachment of issue under
// <Dir>/<KEY>/<filename>. An attachment already present with the expected
// size is not downloaded again.
func (e *Exporter) downloadAttachments(ctx context.Context, issue *jira.Issue) error {
	dir := filepath.Join(e.Dir, issue.Key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create attachment directory: %w", err)
	}

	for _, att := range issue.Fields.Attachments {
		name := filepath.Base(att.Filename)
		if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
			e.warn(fmt.Sprintf("issue %s: skipping attachment with unusable filename %q", issue.Key, att.Filename))
			continue
		}
		path := filepath.Join(dir, name)

		if info, err := os.Stat(path); err == nil && att.Size > 0 && info.Size() == att.Size {
			e.message(fmt.Sprintf("attachment %s already downloaded", path))
			continue
		}

		n, err := e.downloadOne(ctx, att.Content, path)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", att.Filename, err)
		}
		e.message(fmt.Sprintf("attachment %s (%d bytes)", path, n))
	}
	return nil
}

// downloadOne streams an attachment to a temp file and renames it into
// place, so an interrupted download never leaves a partial attachment.
func (e *Exporter) downloadOne(ctx context.Context, contentURL, path string) (int64, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	n, err := e.Client.DownloadAttachment(ctx, contentURL, tmp)
	if err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return n, fmt.Errorf("replace file: %w", err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		return n, fmt.Errorf("set file permissions: %w", err)
	}
	return n, nil
}
