package timesheet

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format the API expects for <Date>
const DateLayout = "20060102"

var ErrInvalidEntry = errors.New("invalid timesheet entry")

// Entry is one block of time worked on a task
type Entry struct {
	Job     string
	Task    string
	Staff   string
	Date    time.Time
	Minutes int
	Note    string
}

type wireEntry struct {
	Job     string `xml:"Job"`
	Task    string `xml:"Task"`
	Staff   string `xml:"Staff"`
	Date    string `xml:"Date"`
	Minutes int    `xml:"Minutes"`
	Note    string `xml:"Note"`
}

// MarshalXML writes the entry as a <Timesheet> element
func (e Entry) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "Timesheet"}
	return enc.EncodeElement(wireEntry{
		Job:     e.Job,
		Task:    e.Task,
		Staff:   e.Staff,
		Date:    e.Date.Format(DateLayout),
		Minutes: e.Minutes,
		Note:    e.Note,
	}, start)
}

func (e *Entry) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var w wireEntry
	if err := dec.DecodeElement(&w, &start); err != nil {
		return err
	}
	date, err := time.ParseInLocation(DateLayout, w.Date, time.Local)
	if err != nil {
		return fmt.Errorf("timesheet date %q: %w", w.Date, err)
	}
	*e = Entry{Job: w.Job, Task: w.Task, Staff: w.Staff, Date: date, Minutes: w.Minutes, Note: w.Note}
	return nil
}

// Validate reports missing identifiers and non-positive durations
func (e Entry) Validate() error {
	var problems []string
	if e.Job == "" {
		problems = append(problems, "job is required")
	}
	if e.Task == "" {
		problems = append(problems, "task is required")
	}
	if e.Staff == "" {
		problems = append(problems, "staff is required")
	}
	if e.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if e.Minutes <= 0 {
		problems = append(problems, "minutes must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(problems, ", "))
	}
	return nil
}

// Encode returns the XML payload posted to the API
func (e Entry) Encode() ([]byte, error) {
	return xml.Marshal(e)
}
