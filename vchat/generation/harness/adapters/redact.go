package adapters

import (
	"net/url"
	"strings"
)

// redact masks secret in s, raw or query-escaped. url.Error messages include
// the full request URL, query-string key included.
func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, secret, "***")
	if escaped := url.QueryEscape(secret); escaped != secret {
		s = strings.ReplaceAll(s, escaped, "***")
	}
	return s
}
