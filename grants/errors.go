// ABOUTME: Validation errors raised while building permission changes
// ABOUTME: Both are detected locally, before any workspace call
package grants

import (
	"fmt"
	"strings"

	"github.com/harperreed/ucadmin/models"
)

// InvalidPrivilegeError reports a privilege outside the allow-list.
type InvalidPrivilegeError struct {
	Value string
}

func (e *InvalidPrivilegeError) Error() string {
	allowed := make([]string, 0, len(models.Privileges()))
	for _, p := range models.Privileges() {
		allowed = append(allowed, string(p))
	}
	return fmt.Sprintf("invalid privilege %q (allowed: %s)", e.Value, strings.Join(allowed, ", "))
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func errValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
