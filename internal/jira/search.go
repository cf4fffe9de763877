package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// SearchOptions controls a JQL search.
type SearchOptions struct {
	// Fields is the comma-separated field list to request. Empty means the
	// default set.
	Fields string
	// PageSize is the maxResults per page. Zero means 100.
	PageSize int
}

// SearchIter iterates over the issues matching a JQL query, fetching pages
// from the server on demand. It is forward-only and not restartable: to
// re-run a query, call Client.Search again.
type SearchIter struct {
	client   *Client
	ctx      context.Context
	jql      string
	fields   string
	pageSize int

	buf     []Issue
	pos     int
	startAt int
	done    bool
	err     error
}

// Search begins a paginated JQL search. Issues are returned in server order;
// no request is made until the first Next call.
func (c *Client) Search(ctx context.Context, jql string, opts SearchOptions) *SearchIter {
	fields := opts.Fields
	if fields == "" {
		fields = searchFields
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &SearchIter{
		client:   c,
		ctx:      ctx,
		jql:      jql,
		fields:   fields,
		pageSize: pageSize,
	}
}

// Next returns the next matching issue, or (nil, nil) when the result set is
// exhausted. A fetch or decode failure terminates iteration: the error is
// returned from this and every subsequent call, and no issue from the failed
// page is yielded.
func (it *SearchIter) Next() (*Issue, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.pos >= len(it.buf) {
		if it.done {
			return nil, nil
		}
		if err := it.fetchPage(); err != nil {
			it.err = err
			return nil, err
		}
		if len(it.buf) == 0 {
			it.done = true
			return nil, nil
		}
	}
	issue := &it.buf[it.pos]
	it.pos++
	return issue, nil
}

func (it *SearchIter) fetchPage() error {
	params := url.Values{
		"jql":        {it.jql},
		"fields":     {it.fields},
		"startAt":    {fmt.Sprintf("%d", it.startAt)},
		"maxResults": {fmt.Sprintf("%d", it.pageSize)},
	}
	apiURL := fmt.Sprintf("%s/rest/api/3/search?%s", it.client.URL, params.Encode())

	body, err := it.client.doRequest(it.ctx, "GET", apiURL, nil)
	if err != nil {
		return fmt.Errorf("search issues: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parse search response: %w", err)
	}

	it.buf = result.Issues
	it.pos = 0
	it.startAt += len(result.Issues)
	if len(result.Issues) == 0 || it.startAt >= result.Total {
		it.done = true
	}
	return nil
}

// SearchAll runs a JQL search and collects every matching issue.
func (c *Client) SearchAll(ctx context.Context, jql, fields string) ([]Issue, error) {
	it := c.Search(ctx, jql, SearchOptions{Fields: fields})
	var all []Issue
	for {
		issue, err := it.Next()
		if err != nil {
			return nil, err
		}
		if issue == nil {
			return all, nil
		}
		all = append(all, *issue)
	}
}
