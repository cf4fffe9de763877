// Package config loads Atlassian credentials from an INI configuration
// file. The file has one section per Atlassian domain with "user" and
// "api_token" keys, and an optional DEFAULTS section supplying a fallback
// "domain" and "jql":
//
//	[DEFAULTS]
//	domain = company.atlassian.net
//	jql = project = PROJ ORDER BY created
//
//	[company.atlassian.net]
//	user = someone@company.com
//	api_token = TOKEN
//
// JIRA_USERNAME and JIRA_API_TOKEN environment variables override the file
// values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// DefaultsSection is the section holding fallback values.
const DefaultsSection = "DEFAULTS"

// Credentials identify a Jira Cloud instance and the account used to
// access it.
type Credentials struct {
	Domain   string
	User     string
	APIToken string
}

// ConfigError reports a missing or incomplete configuration file. It is
// always fatal and raised before any network call.
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration file %s: %s", e.Path, e.Msg)
}

// File is a parsed credentials file.
type File struct {
	path string
	ini  *ini.File
}

// Load reads and parses the INI file at path.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ConfigError{Path: path, Msg: "not found"}
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: fmt.Sprintf("parse error: %v", err)}
	}
	return &File{path: path, ini: f}, nil
}

// Credentials resolves the credentials for domain. An empty domain falls
// back to the DEFAULTS section's "domain" value.
func (f *File) Credentials(domain string) (*Credentials, error) {
	if domain == "" {
		domain = f.defaults("domain")
	}
	if domain == "" {
		return nil, &ConfigError{Path: f.path, Msg: "no Atlassian domain given and no default domain configured"}
	}

	sec, err := f.ini.GetSection(domain)
	if err != nil {
		return nil, &ConfigError{Path: f.path, Msg: fmt.Sprintf("no section for domain %q", domain)}
	}

	user := sec.Key("user").String()
	if v := os.Getenv("JIRA_USERNAME"); v != "" {
		user = v
	}
	token := sec.Key("api_token").String()
	if v := os.Getenv("JIRA_API_TOKEN"); v != "" {
		token = v
	}

	if user == "" {
		return nil, &ConfigError{Path: f.path, Msg: fmt.Sprintf("user is not specified for domain %q", domain)}
	}
	if token == "" {
		return nil, &ConfigError{Path: f.path, Msg: fmt.Sprintf("api_token is not specified for domain %q", domain)}
	}

	return &Credentials{Domain: domain, User: user, APIToken: token}, nil
}

// DefaultJQL returns the DEFAULTS section's "jql" value, or empty.
func (f *File) DefaultJQL() string {
	return f.defaults("jql")
}

// defaults looks a key up in the DEFAULTS section, falling back to the INI
// format's native DEFAULT section so configs written for tools using
// configparser-style defaults keep working.
func (f *File) defaults(key string) string {
	if sec, err := f.ini.GetSection(DefaultsSection); err == nil && sec.HasKey(key) {
		return sec.Key(key).String()
	}
	return f.ini.Section(ini.DefaultSection).Key(key).String()
}
