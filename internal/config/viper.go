// Package config resolves the credentials and endpoints of every source.
// Values come from the environment first, then from viper (config file or
// bound flags).
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/covidliste/directory/pkg/errors"
)

// Credential and endpoint keys.
const (
	KeyRosterURL            = "ROSTER_URL"
	KeySlackToken           = "SLACK_TOKEN"
	KeySlackURL             = "SLACK_API_URL"
	KeyWebsiteURL           = "WEBSITE_URL"
	KeyWebsiteToken         = "WEBSITE_TOKEN"
	KeyHelpdeskURL          = "HELPDESK_URL"
	KeyHelpdeskToken        = "HELPDESK_TOKEN"
	KeyTelephonyURL         = "TELEPHONY_URL"
	KeyTelephonyAPIID       = "TELEPHONY_API_ID"
	KeyTelephonyAPIToken    = "TELEPHONY_API_TOKEN"
	KeyKnowledgeBaseURL     = "KNOWLEDGEBASE_URL"
	KeyKnowledgeBaseToken   = "KNOWLEDGEBASE_TOKEN"
	KeyKnowledgeBaseVersion = "KNOWLEDGEBASE_VERSION"
	KeyTwitterURL           = "TWITTER_URL"
	KeyTwitterToken         = "TWITTER_TOKEN"
	KeyGitHubURL            = "GITHUB_URL"
)

// Default endpoints.
const (
	DefaultSlackURL             = "https://slack.com/api"
	DefaultHelpdeskURL          = "https://api.intercom.io/admins"
	DefaultTelephonyURL         = "https://api.aircall.io/v1/users"
	DefaultKnowledgeBaseURL     = "https://api.notion.com/v1/users"
	DefaultKnowledgeBaseVersion = "2022-06-28"
	DefaultTwitterURL           = "https://api.twitter.com/1.1/users/show.json"
	DefaultGitHubURL            = "https://github.com"
)

// Keys lists every key read by Load, for viper binding.
func Keys() []string {
	return []string{
		KeyRosterURL,
		KeySlackToken, KeySlackURL,
		KeyWebsiteURL, KeyWebsiteToken,
		KeyHelpdeskURL, KeyHelpdeskToken,
		KeyTelephonyURL, KeyTelephonyAPIID, KeyTelephonyAPIToken,
		KeyKnowledgeBaseURL, KeyKnowledgeBaseToken, KeyKnowledgeBaseVersion,
		KeyTwitterURL, KeyTwitterToken,
		KeyGitHubURL,
	}
}

// Credentials holds every secret and endpoint of a run.
type Credentials struct {
	RosterURL string

	SlackURL   string
	SlackToken string

	WebsiteURL   string
	WebsiteToken string

	HelpdeskURL   string
	HelpdeskToken string

	TelephonyURL      string
	TelephonyAPIID    string
	TelephonyAPIToken string

	KnowledgeBaseURL     string
	KnowledgeBaseToken   string
	KnowledgeBaseVersion string

	// TwitterToken is optional; without it Twitter handles are not resolved.
	TwitterURL   string
	TwitterToken string

	GitHubURL string
}

// Lookup returns the value of a key, or "" when unset.
type Lookup func(key string) string

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return viper.GetString(key)
}

// Load resolves the credentials through get (GetString when nil). Every
// missing required key is reported in a single ConfigError.
func Load(get Lookup) (*Credentials, error) {
	if get == nil {
		get = GetString
	}

	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(get(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	optional := func(key, def string) string {
		if v := strings.TrimSpace(get(key)); v != "" {
			return v
		}
		return def
	}

	c := &Credentials{
		RosterURL:            required(KeyRosterURL),
		SlackURL:             optional(KeySlackURL, DefaultSlackURL),
		SlackToken:           required(KeySlackToken),
		WebsiteURL:           required(KeyWebsiteURL),
		WebsiteToken:         required(KeyWebsiteToken),
		HelpdeskURL:          optional(KeyHelpdeskURL, DefaultHelpdeskURL),
		HelpdeskToken:        required(KeyHelpdeskToken),
		TelephonyURL:         optional(KeyTelephonyURL, DefaultTelephonyURL),
		TelephonyAPIID:       required(KeyTelephonyAPIID),
		TelephonyAPIToken:    required(KeyTelephonyAPIToken),
		KnowledgeBaseURL:     optional(KeyKnowledgeBaseURL, DefaultKnowledgeBaseURL),
		KnowledgeBaseToken:   required(KeyKnowledgeBaseToken),
		KnowledgeBaseVersion: optional(KeyKnowledgeBaseVersion, DefaultKnowledgeBaseVersion),
		TwitterURL:           optional(KeyTwitterURL, DefaultTwitterURL),
		TwitterToken:         optional(KeyTwitterToken, ""),
		GitHubURL:            optional(KeyGitHubURL, DefaultGitHubURL),
	}

	if len(missing) > 0 {
		return nil, &errors.ConfigError{
			Component: "credentials",
			Message:   "missing required keys",
			Missing:   missing,
		}
	}
	return c, nil
}
