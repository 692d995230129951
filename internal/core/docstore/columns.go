package docstore

import "time"

// NullString stores an empty string as NULL so unique indexes skip rows without a value.
func NullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue reads a nullable column back into a plain string.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UTC normalises a nullable timestamp read from the database.
func UTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
