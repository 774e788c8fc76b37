// ABOUTME: Shared state carried through the access workflow
// ABOUTME: Each field is written once by the step that owns it
package workflow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/harperreed/ucadmin/agent"
)

// Field names a state slot.
type Field string

const (
	FieldCatalogList Field = "catalog_list"
	FieldUserList    Field = "user_list"
	FieldGrantStatus Field = "grant_status"
)

// ErrFieldWritten is returned when a step writes a field that already holds a value.
var ErrFieldWritten = errors.New("state field already written")

type State struct {
	CatalogList []agent.CatalogSchemas `json:"catalog_list,omitempty" yaml:"catalog_list,omitempty"`
	UserList    *agent.UserList        `json:"user_list,omitempty" yaml:"user_list,omitempty"`
	GrantStatus []string               `json:"grant_status,omitempty" yaml:"grant_status,omitempty"`

	// Written lists the fields that hold a value, in write order.
	Written []Field `json:"written" yaml:"written"`
}

// Has reports whether f has been written.
func (s State) Has(f Field) bool {
	return slices.Contains(s.Written, f)
}

// Update is the partial state a step returns. Field selects which value is
// written; an empty Field writes nothing.
type Update struct {
	Field       Field
	CatalogList []agent.CatalogSchemas
	UserList    agent.UserList
	GrantStatus []string
}

func CatalogListUpdate(v []agent.CatalogSchemas) Update {
	return Update{Field: FieldCatalogList, CatalogList: v}
}

func UserListUpdate(v agent.UserList) Update {
	return Update{Field: FieldUserList, UserList: v}
}

func GrantStatusUpdate(v ...string) Update {
	return Update{Field: FieldGrantStatus, GrantStatus: v}
}

// Merge writes u into s, leaving every other field untouched.
func (s *State) Merge(u Update) error {
	if u.Field == "" {
		return nil
	}
	if s.Has(u.Field) {
		return fmt.Errorf("%w: %s", ErrFieldWritten, u.Field)
	}

	switch u.Field {
	case FieldCatalogList:
		s.CatalogList = u.CatalogList
	case FieldUserList:
		users := u.UserList
		s.UserList = &users
	case FieldGrantStatus:
		s.GrantStatus = u.GrantStatus
	default:
		return fmt.Errorf("unknown state field %q", u.Field)
	}
	s.Written = append(s.Written, u.Field)
	return nil
}
