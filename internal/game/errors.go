package game

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a user-correctable problem with a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors maps a field path (e.g. "quests[1].name") to its first error message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; ok {
		return
	}
	fe[field] = msg
}

// AddError records err under field. A ValidationError keeps only its message
// and falls back to its own field when field is empty.
func (fe FieldErrors) AddError(field string, err error) {
	if ve, ok := err.(ValidationError); ok {
		if field == "" {
			field = ve.Field
		}
		fe.Add(field, ve.Message)
		return
	}
	fe.Add(field, err.Error())
}

// Err returns nil when there are no field errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return strings.Join(parts, "; ")
}
