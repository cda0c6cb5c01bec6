package leads

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	MinAge = 16
	MaxAge = 100
)

// ValidationResult is either a valid record or the failing fields.
type ValidationResult struct {
	Valid  bool
	Record LeadRecord
	Errors FieldErrors
}

// Validate checks every field independently and reports all failures together.
// The record it returns carries DefaultCourse and no source.
func Validate(in FormInput) ValidationResult {
	errs := FieldErrors{}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs["name"] = MsgRequired
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		errs["city"] = MsgRequired
	}

	age, ageMsg := parseAge(in.Age)
	if ageMsg != "" {
		errs["age"] = ageMsg
	}

	phone := NormalizePhone(in.Phone)
	switch {
	case strings.TrimSpace(in.Phone) == "":
		errs["phone"] = MsgRequired
	case !validPhoneDigits(phone):
		errs["phone"] = MsgInvalid
	}

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}
	return ValidationResult{
		Valid: true,
		Record: LeadRecord{
			Name:   name,
			City:   city,
			Age:    age,
			Phone:  phone,
			Course: DefaultCourse,
		},
	}
}

// NewLeadRecord validates in and labels the record with course and source.
// Validation failures are returned as FieldErrors.
func NewLeadRecord(in FormInput, course, source string) (LeadRecord, error) {
	res := Validate(in)
	if !res.Valid {
		return LeadRecord{}, res.Errors
	}
	return res.Record.WithCourse(course).WithSource(source), nil
}

func parseAge(raw string) (float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, MsgRequired
	}
	age, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(age) || math.IsInf(age, 0) {
		return 0, MsgInvalid
	}
	if age < MinAge || age > MaxAge {
		return 0, MsgInvalid
	}
	return age, ""
}

// NormalizePhone strips hyphens and whitespace.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

func validPhoneDigits(phone string) bool {
	if len(phone) < 9 || len(phone) > 10 {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}
