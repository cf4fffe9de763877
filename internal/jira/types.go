// Package jira provides an authenticated client for the Jira Cloud REST API:
// paginated JQL search, single-issue fetch, label updates, and attachment
// downloads.
package jira

import "encoding/json"

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields of a Jira issue.
type IssueFields struct {
	Summary        string           `json:"summary"`
	Description    json.RawMessage  `json:"description"` // ADF (Atlassian Document Format) or plain text
	Status         *StatusField     `json:"status"`
	Priority       *PriorityField   `json:"priority"`
	IssueType      *IssueTypeField  `json:"issuetype"`
	Project        *ProjectField    `json:"project"`
	Reporter       *UserField       `json:"reporter"`
	Assignee       *UserField       `json:"assignee"`
	Resolution     *ResolutionField `json:"resolution"`
	Parent         *Issue           `json:"parent"`
	Subtasks       []Issue          `json:"subtasks"`
	Labels         []string         `json:"labels"`
	Comment        *CommentList     `json:"comment"`
	Attachments    []Attachment     `json:"attachment"`
	Created        string           `json:"created"`
	Updated        string           `json:"updated"`
	ResolutionDate string           `json:"resolutiondate"`
}

// StatusField represents a Jira issue status.
type StatusField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PriorityField represents a Jira issue priority.
type PriorityField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueTypeField represents a Jira issue type.
type IssueTypeField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectField represents a Jira project.
type ProjectField struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// UserField represents a Jira user.
type UserField struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// ResolutionField represents a Jira resolution.
type ResolutionField struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CommentList is the paged comment container embedded in an issue's fields.
type CommentList struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Comments   []Comment `json:"comments"`
}

// Comment represents a single issue comment.
type Comment struct {
	ID      string          `json:"id"`
	Author  *UserField      `json:"author"`
	Body    json.RawMessage `json:"body"` // ADF or plain text
	Created string          `json:"created"`
	Updated string          `json:"updated"`
}

// Attachment describes an attachment on an issue. Content is the
// authenticated download URL for the attachment binary.
type Attachment struct {
	ID       string     `json:"id"`
	Filename string     `json:"filename"`
	Author   *UserField `json:"author"`
	Size     int64      `json:"size"`
	MimeType string     `json:"mimeType"`
	Created  string     `json:"created"`
	Content  string     `json:"content"`
}

// SearchResult represents a Jira JQL search response page.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}
