package jira

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the Jira REST API.
type APIError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// AuthError is a 401 or 403 response: bad credentials or missing permission.
type AuthError struct {
	StatusCode int
	URL        string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("jira authentication failed (%d) for %s: check user and api_token", e.StatusCode, e.URL)
}

// NotFoundError is a 404 response for a single-issue lookup.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("issue %s not found", e.Key)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAuth reports whether err wraps an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
