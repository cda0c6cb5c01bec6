package leads

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SubmitPayload is the lead intake wire format. course and courseName carry
// the same value because downstream consumers read either key.
type SubmitPayload struct {
	Name       string   `json:"name"`
	City       string   `json:"city"`
	Age        AgeValue `json:"age"`
	Phone      string   `json:"phone"`
	Course     string   `json:"course"`
	CourseName string   `json:"courseName"`
	Source     string   `json:"source"`
}

// AgeValue is transmitted as a string but also accepts a bare JSON number.
type AgeValue string

func (a *AgeValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AgeValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("leads: age must be a string or number: %w", err)
	}
	*a = AgeValue(n.String())
	return nil
}

// NewSubmitPayload maps a record onto the wire format.
func NewSubmitPayload(r LeadRecord) SubmitPayload {
	course := r.Course
	if strings.TrimSpace(course) == "" {
		course = DefaultCourse
	}
	return SubmitPayload{
		Name:       r.Name,
		City:       r.City,
		Age:        AgeValue(strconv.FormatFloat(r.Age, 'f', -1, 64)),
		Phone:      r.Phone,
		Course:     course,
		CourseName: course,
		Source:     r.Source,
	}
}

// BuildPayload encodes the request body. Equal records yield identical bytes.
func BuildPayload(r LeadRecord) ([]byte, error) {
	body, err := json.Marshal(NewSubmitPayload(r))
	if err != nil {
		return nil, fmt.Errorf("leads: marshal payload: %w", err)
	}
	return body, nil
}

// FormInput recovers the raw form bag from a received payload.
func (p SubmitPayload) FormInput() FormInput {
	return FormInput{Name: p.Name, City: p.City, Age: string(p.Age), Phone: p.Phone}
}

// CourseOrFallback prefers course and falls back to courseName.
func (p SubmitPayload) CourseOrFallback() string {
	if c := strings.TrimSpace(p.Course); c != "" {
		return c
	}
	return strings.TrimSpace(p.CourseName)
}
