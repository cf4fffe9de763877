package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jiratools/jiratools/internal/jira"
)

const attachmentData = "PNGDATA"

// exportServer fakes the search and attachment-download endpoints.
type exportServer struct {
	srv             *httptest.Server
	downloads       int
	failSearch      bool
	failAttachments bool
	authAttachments bool
}

func newExportServer(t *testing.T, withAttachment bool) *exportServer {
	t.Helper()
	es := &exportServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		if es.failSearch {
			http.Error(w, "search exploded", http.StatusInternalServerError)
			return
		}
		issues := []jira.Issue{
			{Key: "PROJ-1", Fields: jira.IssueFields{
				Summary:     "First issue",
				Description: json.RawMessage(`"first"`),
				Labels:      []string{"one"},
			}},
			{Key: "PROJ-2", Fields: jira.IssueFields{
				Summary:     "Second issue",
				Description: json.RawMessage(`"second"`),
			}},
		}
		if withAttachment {
			issues[0].Fields.Attachments = []jira.Attachment{{
				ID:       "20001",
				Filename: "screenshot.png",
				Size:     int64(len(attachmentData)),
				MimeType: "image/png",
				Content:  es.srv.URL + "/attachments/20001/data",
			}}
		}
		_ = json.NewEncoder(w).Encode(jira.SearchResult{Total: len(issues), Issues: issues})
	})
	mux.HandleFunc("/attachments/20001/data", func(w http.ResponseWriter, r *http.Request) {
		if es.authAttachments {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if es.failAttachments {
			http.Error(w, "storage down", http.StatusInternalServerError)
			return
		}
		es.downloads++
		_, _ = w.Write([]byte(attachmentData))
	})

	es.srv = httptest.NewServer(mux)
	t.Cleanup(es.srv.Close)
	return es
}

func newExporter(es *exportServer, dir string, format Format) *Exporter {
	return &Exporter{
		Client: jira.NewClient(es.srv.URL, "user", "token"),
		Dir:    dir,
		Format: format,
	}
}

func TestRunWritesOneFilePerIssue(t *testing.T) {
	es := newExportServer(t, false)
	dir := t.TempDir()

	exp := newExporter(es, dir, FormatText)
	count, err := exp.Run(context.Background(), "project = PROJ")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, key := range []string{"PROJ-1", "PROJ-2"} {
		data, err := os.ReadFile(filepath.Join(dir, key+".txt"))
		require.NoError(t, err, "issue file for %s", key)
		assert.Contains(t, string(data), "Issue: "+key)
		assert.Contains(t, string(data), "Link: "+es.srv.URL+"/browse/"+key)
	}

	// Atomic writes leave no temp residue behind.
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRunYAMLFormat(t *testing.T) {
	es := newExportServer(t, false)
	dir := t.TempDir()

	exp := newExporter(es, dir, FormatYAML)
	count, err := exp.Run(context.Background(), "project = PROJ")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := os.ReadFile(filepath.Join(dir, "PROJ-1.yaml"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "PROJ-1", doc["key"])
	assert.Equal(t, "first", doc["description"])
}

func TestRunSearchFailureIsFatal(t *testing.T) {
	es := newExportServer(t, false)
	es.failSearch = true
	dir := t.TempDir()

	exp := newExporter(es, dir, FormatText)
	count, err := exp.Run(context.Background(), "project = PROJ")
	require.Error(t, err)
	assert.Equal(t, 0, count)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial export files on a fatal search failure")
}

func TestRunDownloadsAttachments(t *testing.T) {
	es := newExportServer(t, true)
	dir := t.TempDir()

	exp := newExporter(es, dir, FormatText)
	exp.DownloadAttachments = true

	_, err := exp.Run(context.Background(), "project = PROJ")
	require.NoError(t, err)

	path := filepath.Join(dir, "PROJ-1", "screenshot.png")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, attachmentData, string(data))
	assert.Equal(t, 1, es.downloads)

	// A second run skips the attachment: same name, same size.
	_, err = exp.Run(context.Background(), "project = PROJ")
	require.NoError(t, err)
	assert.Equal(t, 1, es.downloads, "attachment with matching size must not be re-downloaded")
}

func TestRunAttachmentFailureSkipsIssueAndContinues(t *testing.T) {
	es := newExportServer(t, true)
	es.failAttachments = true
	dir := t.TempDir()

	var warnings []string
	exp := newExporter(es, dir, FormatText)
	exp.DownloadAttachments = true
	exp.OnWarning = func(msg string) { warnings = append(warnings, msg) }

	count, err := exp.Run(context.Background(), "project = PROJ")
	require.NoError(t, err, "attachment failures are per-issue, not fatal")
	assert.Equal(t, 2, count)

	// The issue file itself was still written.
	_, err = os.Stat(filepath.Join(dir, "PROJ-1.txt"))
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "PROJ-1")

	// No partial attachment left behind.
	_, err = os.Stat(filepath.Join(dir, "PROJ-1", "screenshot.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunAttachmentAuthFailureIsFatal(t *testing.T) {
	es := newExportServer(t, true)
	es.authAttachments = true
	dir := t.TempDir()

	exp := newExporter(es, dir, FormatText)
	exp.DownloadAttachments = true

	_, err := exp.Run(context.Background(), "project = PROJ")
	require.Error(t, err, "a rejected credential must abort the run")
	assert.True(t, jira.IsAuth(err), "error should report an auth failure: %v", err)

	// The run stopped at the first issue; the second was never exported.
	_, err = os.Stat(filepath.Join(dir, "PROJ-2.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, writeFileAtomic(path, []byte("new contents")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new contents", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExportedTextMatchesFormat(t *testing.T) {
	es := newExportServer(t, false)
	dir := t.TempDir()

	exp := newExporter(es, dir, FormatText)
	_, err := exp.Run(context.Background(), "project = PROJ")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "PROJ-2.txt"))
	require.NoError(t, err)
	text := string(data)

	wantPrefix := strings.Join([]string{
		"Link: " + es.srv.URL + "/browse/PROJ-2",
		"Issue: PROJ-2",
		"Type: Unknown",
	}, "\n")
	assert.True(t, strings.HasPrefix(text, wantPrefix), "got:\n%s", text)
}
