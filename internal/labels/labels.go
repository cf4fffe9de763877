// Package labels applies a uniform add/remove label diff to a set of Jira
// issues resolved from explicit keys or a JQL query.
package labels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jiratools/jiratools/internal/jira"
)

// Editor drives the label edit pipeline. The same Add/Remove diff is applied
// to every resolved issue.
type Editor struct {
	Client *jira.Client
	Add    []string
	Remove []string

	// DryRun performs the full resolution and diff computation but logs the
	// intended change instead of calling the update endpoint.
	DryRun bool

	OnMessage func(msg string)
	OnWarning func(msg string)
}

// Stats summarizes a run. Updated counts issues whose labels changed (or
// would change, in a dry run); Failed counts issues that could not be
// fetched or updated.
type Stats struct {
	Processed int
	Updated   int
	Failed    int
}

// Validate rejects configurations that must not reach the network: an empty
// diff, or a label present in both Add and Remove (ambiguous).
func (e *Editor) Validate() error {
	if len(e.Add) == 0 && len(e.Remove) == 0 {
		return errors.New("no labels specified for adding and/or removing")
	}
	removing := make(map[string]bool, len(e.Remove))
	for _, l := range e.Remove {
		removing[l] = true
	}
	for _, l := range e.Add {
		if removing[l] {
			return fmt.Errorf("label %q is both added and removed", l)
		}
	}
	return nil
}

// Run resolves the target issues and applies the diff to each. Explicit keys
// take precedence and skip the search entirely; otherwise issues are
// resolved via jql. A search failure or an authentication failure (401/403)
// is fatal and aborts the run; any other fetch or update failure on one
// issue is reported and the run continues with the next.
func (e *Editor) Run(ctx context.Context, keys []string, jql string) (Stats, error) {
	var stats Stats
	if err := e.Validate(); err != nil {
		return stats, err
	}

	if len(keys) > 0 {
		for _, key := range keys {
			issue, err := e.Client.GetIssue(ctx, key, "labels")
			if err != nil {
				if jira.IsAuth(err) {
					return stats, err
				}
				e.warn(fmt.Sprintf("issue %s: %v", key, err))
				stats.Failed++
				continue
			}
			if err := e.apply(ctx, issue, &stats); err != nil {
				return stats, err
			}
		}
		return stats, nil
	}

	it := e.Client.Search(ctx, jql, jira.SearchOptions{Fields: "labels"})
	for {
		issue, err := it.Next()
		if err != nil {
			return stats, err
		}
		if issue == nil {
			return stats, nil
		}
		if err := e.apply(ctx, issue, &stats); err != nil {
			return stats, err
		}
	}
}

// apply computes and applies the diff for one issue. Only an authentication
// failure is returned as an error; other update failures are counted and
// reported through OnWarning.
func (e *Editor) apply(ctx context.Context, issue *jira.Issue, stats *Stats) error {
	stats.Processed++

	result, added, removed := Diff(issue.Fields.Labels, e.Add, e.Remove)
	for _, l := range added {
		e.message(fmt.Sprintf("Add label %q to issue %s", l, issue.Key))
	}
	for _, l := range removed {
		e.message(fmt.Sprintf("Remove label %q from issue %s", l, issue.Key))
	}
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	if e.DryRun {
		e.message(fmt.Sprintf("DRY RUN: would update issue %s with labels: %s", issue.Key, strings.Join(result, ", ")))
		stats.Updated++
		return nil
	}

	e.message(fmt.Sprintf("Update issue %s with labels: %s", issue.Key, strings.Join(result, ", ")))
	if err := e.Client.UpdateLabels(ctx, issue.Key, result); err != nil {
		if jira.IsAuth(err) {
			return err
		}
		e.warn(fmt.Sprintf("issue %s: %v", issue.Key, err))
		stats.Failed++
		return nil
	}
	stats.Updated++
	return nil
}

// Diff computes the label set resulting from applying add and remove to
// current. The order of current is preserved and additions are appended in
// order; added/removed report the labels that actually change.
func Diff(current, add, remove []string) (result, added, removed []string) {
	present := make(map[string]bool, len(current))
	for _, l := range current {
		present[l] = true
	}

	removing := make(map[string]bool, len(remove))
	for _, l := range remove {
		removing[l] = true
		if present[l] {
			removed = append(removed, l)
		}
	}

	result = make([]string, 0, len(current)+len(add))
	for _, l := range current {
		if !removing[l] {
			result = append(result, l)
		}
	}
	for _, l := range add {
		if !present[l] {
			result = append(result, l)
			present[l] = true
			added = append(added, l)
		}
	}
	return result, added, removed
}

func (e *Editor) message(msg string) {
	if e.OnMessage != nil {
		e.OnMessage(msg)
	}
}

func (e *Editor) warn(msg string) {
	if e.OnWarning != nil {
		e.OnWarning(msg)
	}
}
