package mcp

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultTavilyEndpoint is Tavily's hosted MCP server.
const DefaultTavilyEndpoint = "https://mcp.tavily.com/mcp/"

const apiKeyParam = "tavilyApiKey"

// EndpointURL adds the API key to the provider base URL as the
// tavilyApiKey query parameter, keeping any existing query.
func EndpointURL(base, apiKey string) (string, error) {
	if apiKey == "" {
		return "", errors.New("tool provider API key is empty")
	}
	if base == "" {
		base = DefaultTavilyEndpoint
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("endpoint %q must be http or https", base)
	}

	q := u.Query()
	q.Set(apiKeyParam, apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RedactEndpoint hides credential query values so the endpoint can be logged.
func RedactEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid endpoint>"
	}
	q := u.Query()
	for key := range q {
		if isSecretParam(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	u.User = nil
	return u.String()
}

// endpointSecrets returns the credential values carried by endpoint, raw and
// query-escaped, so they can be scrubbed from error messages.
func endpointSecrets(endpoint string) []string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil
	}
	var secrets []string
	for key, values := range u.Query() {
		if !isSecretParam(key) {
			continue
		}
		for _, v := range values {
			if v == "" {
				continue
			}
			secrets = append(secrets, v)
			if esc := url.QueryEscape(v); esc != v {
				secrets = append(secrets, esc)
			}
		}
	}
	return secrets
}

func isSecretParam(key string) bool {
	switch key {
	case apiKeyParam, "api_key", "apiKey", "token":
		return true
	}
	return false
}
