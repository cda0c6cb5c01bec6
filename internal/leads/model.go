package leads

import (
	"strings"
	"time"
)

// DefaultCourse is recorded when the visitor did not pick a course.
const DefaultCourse = "not specified"

// FormInput is the raw text a visitor typed into the enrollment form.
type FormInput struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	Age   string `json:"age"`
	Phone string `json:"phone"`
}

// LeadRecord is a validated prospective-student submission. Build one with
// Validate; the With* methods return modified copies.
type LeadRecord struct {
	Name   string  `json:"name"`
	City   string  `json:"city"`
	Age    float64 `json:"age"`
	Phone  string  `json:"phone"`
	Course string  `json:"course"`
	Source string  `json:"source"`
}

// WithCourse returns a copy carrying course, or DefaultCourse when blank.
func (r LeadRecord) WithCourse(course string) LeadRecord {
	course = strings.TrimSpace(course)
	if course == "" {
		course = DefaultCourse
	}
	r.Course = course
	return r
}

// WithSource returns a copy labelled with the UI surface that produced it.
func (r LeadRecord) WithSource(source string) LeadRecord {
	r.Source = strings.TrimSpace(source)
	return r
}

// Lead is a lead accepted by the intake endpoint.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Age       float64   `json:"age"`
	Phone     string    `json:"phone"`
	Course    string    `json:"course"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLeadsFilter pages through stored leads, newest first.
type ListLeadsFilter struct {
	Limit  int
	Offset int
	Source string
}
