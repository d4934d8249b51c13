package service

import (
	"strings"
	"unicode/utf8"
)

// Spreadsheet columns every import upload must expose.
var requiredImportColumns = []string{"student_name", "email", "phone", "school", "city"}

// pickString defensively stringifies a raw field value: missing values become
// the empty string and surrounding whitespace is dropped.
func pickString(raw map[string]string, key string) string {
	return strings.TrimSpace(raw[key])
}

// isValidEmail performs the same structural check everywhere an email enters
// the system: plausible length, exactly one meaningful local part, and a
// dotted domain.
func isValidEmail(email string) bool {
	if len(email) < 5 || len(email) > 254 {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || at >= len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || len(domain) < 3 {
		return false
	}
	return true
}

func minLen(s string, n int) bool {
	return utf8.RuneCountInString(s) >= n
}

// validateLeadFields checks the schema constraints shared by import rows and
// direct lead creation. Returns false when any field is out of shape.
func validateLeadFields(studentName, email, phone, school, city string) bool {
	return minLen(studentName, 2) &&
		isValidEmail(email) &&
		minLen(phone, 4) &&
		minLen(school, 2) &&
		minLen(city, 2)
}
