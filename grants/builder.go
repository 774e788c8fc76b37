// ABOUTME: Builds validated permission-change requests from raw user input
// ABOUTME: Parses privileges, object types and actions against their allow-lists
package grants

import (
	"strings"

	"github.com/harperreed/ucadmin/models"
)

// Request is the unvalidated form of a permission change as entered by a user
// or an agent.
type Request struct {
	Principal  string `json:"principal" yaml:"principal"`
	ObjectType string `json:"object_type" yaml:"object_type"`
	ObjectName string `json:"object_name" yaml:"object_name"`
	Privilege  string `json:"privilege" yaml:"privilege"`
	Action     string `json:"action" yaml:"action"`
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParsePrivilege accepts only allow-listed privileges, case-insensitively.
func ParsePrivilege(s string) (models.Privilege, error) {
	v := normalize(s)
	for _, p := range models.Privileges() {
		if string(p) == v {
			return p, nil
		}
	}
	return "", &InvalidPrivilegeError{Value: s}
}

func ParseSecurableType(s string) (models.SecurableType, error) {
	v := normalize(s)
	for _, t := range models.SecurableTypes() {
		if string(t) == v {
			return t, nil
		}
	}
	return "", errValidation("object_type", "unknown object type %q", s)
}

// ParseAction defaults to GRANT when s is blank.
func ParseAction(s string) (models.Action, error) {
	switch normalize(s) {
	case "", string(models.ActionGrant):
		return models.ActionGrant, nil
	case string(models.ActionRevoke):
		return models.ActionRevoke, nil
	}
	return "", errValidation("action", "unknown action %q", s)
}

// FullName joins scope components with dots. It does not check that the object exists.
func FullName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// Build validates r and returns the request to submit. The privilege is
// checked first so an unknown privilege is always an InvalidPrivilegeError.
func Build(r Request) (models.PermissionChangeRequest, error) {
	priv, err := ParsePrivilege(r.Privilege)
	if err != nil {
		return models.PermissionChangeRequest{}, err
	}

	principal := strings.TrimSpace(r.Principal)
	if principal == "" {
		return models.PermissionChangeRequest{}, errValidation("principal", "is required")
	}

	action, err := ParseAction(r.Action)
	if err != nil {
		return models.PermissionChangeRequest{}, err
	}

	securable, err := ParseSecurableType(r.ObjectType)
	if err != nil {
		return models.PermissionChangeRequest{}, err
	}

	name := strings.TrimSpace(r.ObjectName)
	if name == "" {
		return models.PermissionChangeRequest{}, errValidation("object_name", "is required")
	}

	return models.PermissionChangeRequest{
		Principal:     principal,
		SecurableType: securable,
		FullName:      name,
		Privilege:     priv,
		Action:        action,
	}, nil
}
