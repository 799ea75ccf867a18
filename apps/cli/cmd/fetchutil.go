package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/stopwatch/packages/query"
)

// parseHeaders turns 'Name: value' strings into a header map
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid header %q (expected 'Name: value')", h)
		}
		headers[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// readPayload resolves --data: @path reads a file, @- reads stdin
func readPayload(data string, stdin io.Reader) ([]byte, error) {
	switch {
	case data == "":
		return nil, nil
	case data == "@-":
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		return body, nil
	case strings.HasPrefix(data, "@"):
		body, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	default:
		return []byte(data), nil
	}
}

func parseCredential(user string) (*query.Credential, error) {
	if user == "" {
		return nil, nil
	}
	name, password, _ := strings.Cut(user, ":")
	if name == "" {
		return nil, fmt.Errorf("invalid --user %q (expected user:password)", user)
	}
	return &query.Credential{User: name, Password: password}, nil
}

// resolveMethod defaults to POST when a body is given, like curl
func resolveMethod(method string, payload []byte) string {
	if method != "" {
		return method
	}
	if payload != nil {
		return http.MethodPost
	}
	return http.MethodGet
}
