package capture

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/stopwatch/packages/query"
	"github.com/tidwall/gjson"
)

// Source is where a capture reads its value from
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Capture names one value to pull out of a response
type Capture struct {
	Name   string
	Source Source
	Path   string
}

// Parse reads a capture expression of the form [name=]source[.path], where
// source is body, header, status or duration. Without a name the
// expression itself is used as the name.
func Parse(expr string) (*Capture, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty capture expression")
	}

	name, target, found := strings.Cut(expr, "=")
	if !found {
		name, target = expr, expr
	}
	name = strings.TrimSpace(name)
	target = strings.TrimSpace(target)

	source, path, _ := strings.Cut(target, ".")
	c := &Capture{Name: name, Path: path}

	switch source {
	case "body":
		c.Source = SourceBody
	case "header":
		if path == "" {
			return nil, fmt.Errorf("capture %q: header needs a name", expr)
		}
		c.Source = SourceHeader
	case "status":
		c.Source = SourceStatus
	case "duration":
		c.Source = SourceDuration
	default:
		return nil, fmt.Errorf("capture %q: unknown source %q", expr, source)
	}

	return c, nil
}

type Extractor struct {
	response *query.Response
	bodyJSON gjson.Result
}

func NewExtractor(resp *query.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if resp.IsJSON() || gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

func (e *Extractor) Extract(capture *Capture) (any, bool) {
	switch capture.Source {
	case SourceBody:
		return e.extractFromBody(capture.Path)
	case SourceHeader:
		return e.extractFromHeader(capture.Path)
	case SourceStatus:
		if !e.response.HasStatus() {
			return nil, false
		}
		return e.response.StatusCode, true
	case SourceDuration:
		return e.response.DurationMs(), true
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		if path == "" {
			return e.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

func ExtractAll(resp *query.Response, captures []*Capture) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for _, c := range captures {
		if value, ok := extractor.Extract(c); ok {
			results[c.Name] = value
		}
	}

	return results
}
