package export

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jiratools/jiratools/internal/jira"
)

// RenderText renders an issue as a human-readable flattened document. ADF
// rich text (description, comment bodies) is reduced to plain text.
func RenderText(issue *jira.Issue, browseURL string) string {
	f := issue.Fields

	var b strings.Builder
	fmt.Fprintf(&b, "Link: %s\n", browseURL)
	fmt.Fprintf(&b, "Issue: %s\n", issue.Key)
	fmt.Fprintf(&b, "Type: %s\n", nameOrUnknown(fieldName(f.IssueType)))
	fmt.Fprintf(&b, "Status: %s\n", nameOrUnknown(statusName(f.Status)))
	fmt.Fprintf(&b, "Priority: %s\n", nameOrUnknown(priorityName(f.Priority)))
	fmt.Fprintf(&b, "Reporter: %s\n", nameOrUnknown(displayName(f.Reporter)))
	fmt.Fprintf(&b, "Assignee: %s\n", nameOrUnknown(displayName(f.Assignee)))
	fmt.Fprintf(&b, "Resolution: %s\n", resolutionName(f.Resolution))
	fmt.Fprintf(&b, "Subtasks: %s\n", subtaskKeys(f.Subtasks))
	fmt.Fprintf(&b, "Summary: %s\n", f.Summary)
	fmt.Fprintf(&b, "Description:\n\n%s\n", jira.ADFToText(f.Description))
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Labels: %s\n", strings.Join(f.Labels, ", "))
	fmt.Fprintf(&b, "Created: %s\n", f.Created)
	fmt.Fprintf(&b, "Updated: %s\n", f.Updated)
	fmt.Fprintf(&b, "Comments:\n\n%s", commentsText(f.Comment))
	return b.String()
}

func nameOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func fieldName(t *jira.IssueTypeField) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func statusName(s *jira.StatusField) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func priorityName(p *jira.PriorityField) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func displayName(u *jira.UserField) string {
	if u == nil {
		return ""
	}
	return u.DisplayName
}

func resolutionName(r *jira.ResolutionField) string {
	if r == nil || r.Name == "" {
		return "Unresolved"
	}
	return r.Name
}

func subtaskKeys(subtasks []jira.Issue) string {
	if len(subtasks) == 0 {
		return "none"
	}
	keys := make([]string, len(subtasks))
	for i, s := range subtasks {
		keys[i] = s.Key
	}
	return strings.Join(keys, ", ")
}

// commentsText renders each comment as a separator-framed block:
//
//	----------------
//	Alice 2025-01-15
//	----------------
//	comment body
func commentsText(list *jira.CommentList) string {
	if list == nil || len(list.Comments) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(list.Comments))
	for _, c := range list.Comments {
		author := displayName(c.Author)
		if author == "" {
			author = "<unknown author>"
		}
		header := author + " " + c.Created
		sep := strings.Repeat("-", len(header))
		blocks = append(blocks, fmt.Sprintf("%s\n%s\n%s\n%s\n", sep, header, sep, jira.ADFToText(c.Body)))
	}
	return strings.Join(blocks, "\n")
}

// yamlIssue is the structured dump written in yaml format. Field names
// match the REST field names so the export round-trips into the same
// mapping it was read from.
type yamlIssue struct {
	Type           string          `yaml:"type"`
	Key            string          `yaml:"key"`
	BrowseURL      string          `yaml:"browse_url,omitempty"`
	Summary        string          `yaml:"summary"`
	Description    string          `yaml:"description"`
	Created        string          `yaml:"created"`
	Labels         []string        `yaml:"labels"`
	Updated        string          `yaml:"updated"`
	ResolutionDate string          `yaml:"resolutiondate"`
	Parent         string          `yaml:"parent,omitempty"`
	Resolution     *yamlResolution `yaml:"resolution,omitempty"`
	Comments       []yamlComment   `yaml:"comments,omitempty"`
}

type yamlResolution struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Name        string `yaml:"name"`
}

type yamlComment struct {
	Author  string `yaml:"author,omitempty"`
	Body    string `yaml:"body"`
	Created string `yaml:"created"`
	Updated string `yaml:"updated,omitempty"`
}

// RenderYAML renders an issue as a structured YAML document.
func RenderYAML(issue *jira.Issue, browseURL string) ([]byte, error) {
	f := issue.Fields

	doc := yamlIssue{
		Type:           "JiraIssue",
		Key:            issue.Key,
		BrowseURL:      browseURL,
		Summary:        f.Summary,
		Description:    jira.ADFToText(f.Description),
		Created:        f.Created,
		Labels:         f.Labels,
		Updated:        f.Updated,
		ResolutionDate: f.ResolutionDate,
	}
	if f.Parent != nil {
		doc.Parent = f.Parent.Key
	}
	if f.Resolution != nil {
		doc.Resolution = &yamlResolution{
			Type:        "JiraResolution",
			Description: f.Resolution.Description,
			Name:        f.Resolution.Name,
		}
	}
	if f.Comment != nil {
		for _, c := range f.Comment.Comments {
			doc.Comments = append(doc.Comments, yamlComment{
				Author:  displayName(c.Author),
				Body:    jira.ADFToText(c.Body),
				Created: c.Created,
				Updated: c.Updated,
			})
		}
	}

	return yaml.Marshal(&doc)
}
