package workflowmax

import (
	"encoding/xml"
	"fmt"
)

type Staff struct {
	ID    string `xml:"ID"`
	Name  string `xml:"Name"`
	Email string `xml:"Email"`
}

type Task struct {
	ID   string `xml:"ID"`
	Name string `xml:"Name"`
}

// ClientRef is the client a job is billed to
type ClientRef struct {
	ID   string `xml:"ID"`
	Name string `xml:"Name"`
}

type Job struct {
	ID     string    `xml:"ID"`
	Name   string    `xml:"Name"`
	State  string    `xml:"State"`
	Client ClientRef `xml:"Client"`
	Tasks  []Task    `xml:"Tasks>Task"`
}

// ClientJobs groups the jobs of one client
type ClientJobs struct {
	Client ClientRef
	Jobs   []Job
}

// envelope is the common shape of every API response
type envelope struct {
	XMLName     xml.Name `xml:"Response"`
	Status      string   `xml:"Status"`
	Description string   `xml:"ErrorDescription"`
	Staff       []Staff  `xml:"StaffList>Staff"`
	Jobs        []Job    `xml:"Jobs>Job"`
}

// APIError is returned for non-200 responses and for envelopes whose
// status is not OK.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("workflowmax: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("workflowmax: HTTP %d: %s", e.StatusCode, e.Description)
}
