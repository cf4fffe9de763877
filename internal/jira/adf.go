package jira

import (
	"encoding/json"
	"strings"
)

// ADFToText extracts plain text from an Atlassian Document Format value.
// Jira v3 APIs return rich text fields (descriptions, comment bodies) as ADF
// JSON; plain string values pass through unchanged. Block nodes become
// lines, inline nodes are concatenated.
func ADFToText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return string(raw)
	}

	var blocks []string
	for _, block := range doc.Content {
		if line := block.text(); line != "" {
			blocks = append(blocks, line)
		}
	}
	return strings.Join(blocks, "\n")
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// text flattens a node and its descendants into a single string.
func (n adfNode) text() string {
	if n.Text != "" {
		return n.Text
	}
	var parts []string
	for _, c := range n.Content {
		if t := c.text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "")
}
