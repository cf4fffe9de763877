package jira

import (
	"encoding/json"
	"testing"
)

func TestADFToText(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
		want string
	}{
		{"null", json.RawMessage(`null`), ""},
		{"empty", json.RawMessage(``), ""},
		{"plain string", json.RawMessage(`"hello world"`), "hello world"},
		{"ADF paragraphs", json.RawMessage(`{
			"type": "doc",
			"content": [
				{
					"type": "paragraph",
					"content": [
						{"type": "text", "text": "First paragraph"}
					]
				},
				{
					"type": "paragraph",
					"content": [
						{"type": "text", "text": "Second paragraph"}
					]
				}
			]
		}`), "First paragraph\nSecond paragraph"},
		{"nested list items", json.RawMessage(`{
			"type": "doc",
			"content": [
				{
					"type": "bulletList",
					"content": [
						{
							"type": "listItem",
							"content": [
								{
									"type": "paragraph",
									"content": [{"type": "text", "text": "deep text"}]
								}
							]
						}
					]
				}
			]
		}`), "deep text"},
		{"split inline nodes", json.RawMessage(`{
			"type": "doc",
			"content": [
				{
					"type": "paragraph",
					"content": [
						{"type": "text", "text": "bold"},
						{"type": "text", "text": " and plain"}
					]
				}
			]
		}`), "bold and plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ADFToText(tt.raw); got != tt.want {
				t.Errorf("ADFToText() = %q, want %q", got, tt.want)
			}
		})
	}
}
