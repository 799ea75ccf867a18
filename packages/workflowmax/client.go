package workflowmax

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/stopwatch/packages/query"
)

// DefaultHost is the production API endpoint
const DefaultHost = "https://api.workflowmax.com"

// ErrStaffNotFound is returned when no staff member has the given email
var ErrStaffNotFound = errors.New("staff member not found")

// Settings holds the API endpoint and credentials
type Settings struct {
	Host       string
	APIKey     string
	AccountKey string
}

type Client struct {
	q        *query.Client
	settings Settings
}

func NewClient(q *query.Client, cfg Settings) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return &Client{q: q, settings: cfg}
}

// URL builds the address of resource with params and the API keys appended
func (c *Client) URL(resource string, params url.Values) string {
	values := url.Values{}
	for k, v := range params {
		values[k] = append([]string(nil), v...)
	}
	values.Set("apiKey", c.settings.APIKey)
	values.Set("accountKey", c.settings.AccountKey)
	return c.settings.Host + "/" + strings.TrimLeft(resource, "/") + "?" + values.Encode()
}

func (c *Client) ListStaff(ctx context.Context) ([]Staff, error) {
	env, err := c.call(ctx, http.MethodGet, c.URL("staff.api/list", nil), nil)
	if err != nil {
		return nil, err
	}
	return env.Staff, nil
}

// StaffByEmail finds a staff member by email, ignoring case
func (c *Client) StaffByEmail(ctx context.Context, email string) (Staff, error) {
	staff, err := c.ListStaff(ctx)
	if err != nil {
		return Staff{}, err
	}
	for _, s := range staff {
		if strings.EqualFold(strings.TrimSpace(s.Email), strings.TrimSpace(email)) {
			return s, nil
		}
	}
	return Staff{}, fmt.Errorf("%w: %s", ErrStaffNotFound, email)
}

// JobsForStaff lists the jobs assigned to a staff member, sorted by name,
// each with its tasks sorted by name.
func (c *Client) JobsForStaff(ctx context.Context, staffID string) ([]Job, error) {
	resource := "job.api/staff/" + url.PathEscape(staffID)
	env, err := c.call(ctx, http.MethodGet, c.URL(resource, url.Values{"detailed": {"true"}}), nil)
	if err != nil {
		return nil, err
	}

	jobs := env.Jobs
	for i := range jobs {
		sort.SliceStable(jobs[i].Tasks, func(a, b int) bool {
			return jobs[i].Tasks[a].Name < jobs[i].Tasks[b].Name
		})
	}
	sort.SliceStable(jobs, func(a, b int) bool {
		return jobs[a].Name < jobs[b].Name
	})
	return jobs, nil
}

// GroupByClient returns each distinct client, sorted by name, with its jobs
// in their original order.
func GroupByClient(jobs []Job) []ClientJobs {
	index := make(map[string]int)
	var groups []ClientJobs
	for _, job := range jobs {
		i, ok := index[job.Client.ID]
		if !ok {
			i = len(groups)
			index[job.Client.ID] = i
			groups = append(groups, ClientJobs{Client: job.Client})
		}
		groups[i].Jobs = append(groups[i].Jobs, job)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Client.Name < groups[b].Client.Name
	})
	return groups
}

// AddTime posts a <Timesheet> document
func (c *Client) AddTime(ctx context.Context, payload []byte) error {
	_, err := c.call(ctx, http.MethodPost, c.URL("time.api/add", nil), payload)
	return err
}

// call issues a blocking query and decodes the response envelope
func (c *Client) call(ctx context.Context, method, target string, payload []byte) (*envelope, error) {
	var resp *query.Response
	opts := query.Options{
		Headers:  map[string]string{"Accept": "application/xml"},
		Blocking: true,
		Handler: func(r *query.Response, _ *query.Session) {
			resp = r
		},
	}
	if payload != nil {
		opts.Headers["Content-Type"] = "application/xml"
		opts.Payload = payload
	}

	if _, err := c.q.Do(ctx, method, target, opts); err != nil {
		return nil, err
	}
	if resp == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("workflowmax: no response for %s", method)
	}
	if resp.TransportError {
		return nil, resp.Err
	}

	env := &envelope{}
	decodeErr := xml.Unmarshal(resp.Body, env)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Description = env.Description
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("workflowmax: decode response: %w", decodeErr)
	}
	if !strings.EqualFold(env.Status, "OK") {
		return nil, &APIError{StatusCode: resp.StatusCode, Description: env.Description}
	}
	return env, nil
}
