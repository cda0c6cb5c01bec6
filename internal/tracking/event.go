package tracking

import "fmt"

// Method identifies how a visitor signalled enrollment intent.
type Method string

const (
	MethodWhatsApp      Method = "whatsapp"
	MethodPhone         Method = "phone"
	MethodForm          Method = "form"
	MethodFloatWhatsApp Method = "float_whatsapp"
	MethodFloatPhone    Method = "float_phone"
	MethodFloatForm     Method = "float_form"
)

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodWhatsApp, MethodPhone, MethodForm, MethodFloatWhatsApp, MethodFloatPhone, MethodFloatForm:
		return true
	}
	return false
}

// Source identifies the part of the site the interaction came from.
type Source string

const (
	SourceCourseCard  Source = "course_card"
	SourceCoursePage  Source = "course_page"
	SourceContactPage Source = "contact_page"
	SourceFloatButton Source = "float_button"
	SourceAcademyPage Source = "academy_page"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCourseCard, SourceCoursePage, SourceContactPage, SourceFloatButton, SourceAcademyPage:
		return true
	}
	return false
}

// EnrollmentEvent is one recorded enrollment-intent interaction.
type EnrollmentEvent struct {
	Method      Method   `json:"method"`
	Source      Source   `json:"source"`
	CourseName  string   `json:"courseName,omitempty"`
	CoursePrice *float64 `json:"coursePrice,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// Path renders the event as "{source} -> {method}".
func (e EnrollmentEvent) Path() string {
	return fmt.Sprintf("%s -> %s", e.Source, e.Method)
}

// Stats aggregates the stored event log.
type Stats struct {
	Total          int            `json:"total"`
	ByMethod       map[Method]int `json:"byMethod"`
	BySource       map[Source]int `json:"bySource"`
	PopularCourses map[string]int `json:"popularCourses"`
	ConversionPath []string       `json:"conversionPath"`
}

// ComputeStats derives aggregate counts from events ordered oldest first.
func ComputeStats(events []EnrollmentEvent) Stats {
	stats := Stats{
		Total:          len(events),
		ByMethod:       make(map[Method]int),
		BySource:       make(map[Source]int),
		PopularCourses: make(map[string]int),
		ConversionPath: []string{},
	}
	for _, evt := range events {
		stats.ByMethod[evt.Method]++
		stats.BySource[evt.Source]++
		if evt.CourseName != "" {
			stats.PopularCourses[evt.CourseName]++
		}
	}
	if n := len(events); n > 0 {
		stats.ConversionPath = []string{events[n-1].Path()}
	}
	return stats
}
