package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
	"github.com/harperreed/ucadmin/selection"
)

type formField int

const (
	fieldAction formField = iota
	fieldPrincipal
	fieldObjectType
	fieldCatalog
	fieldSchema
	fieldTable
	fieldObjectName
	fieldPrivilege
)

var fieldLabels = map[formField]string{
	fieldAction:     "Action",
	fieldPrincipal:  "Principal",
	fieldObjectType: "Object type",
	fieldCatalog:    "Catalog",
	fieldSchema:     "Schema",
	fieldTable:      "Table",
	fieldObjectName: "Object name",
	fieldPrivilege:  "Privilege",
}

// permissionForm drives the Manage Permissions tab. Each picker defaults to
// its first option, and changing a picker reloads the pickers below it.
type permissionForm struct {
	ctx     context.Context
	ctrl    *selection.Controller
	manager *grants.Manager

	focus   int
	options map[formField][]string
	index   map[formField]int
	name    textinput.Model

	// principalInput replaces the principal picker when users and groups
	// could not be listed.
	principalInput textinput.Model
	freePrincipal  bool

	status string
	err    error
}

func newPermissionForm(ctx context.Context, dir directory.Reader, manager *grants.Manager) *permissionForm {
	name := textinput.New()
	name.Placeholder = "schema.view"
	name.CharLimit = 255

	principal := textinput.New()
	principal.Placeholder = "user@example.com or group name"
	principal.CharLimit = 255

	f := &permissionForm{
		ctx:            ctx,
		ctrl:           selection.NewController(dir),
		manager:        manager,
		name:           name,
		principalInput: principal,
	}
	f.reload()
	return f
}

// reload rebuilds every picker from the directory.
func (f *permissionForm) reload() {
	f.options = make(map[formField][]string)
	f.index = make(map[formField]int)
	f.err = nil
	f.name.SetValue("")
	f.principalInput.SetValue("")
	f.freePrincipal = false

	f.setOptions(fieldAction, []string{string(models.ActionGrant), string(models.ActionRevoke)})

	principals, err := f.ctrl.PrincipalOptions(f.ctx)
	if err != nil {
		f.err = fmt.Errorf("failed to fetch principals, type one instead: %w", err)
		f.freePrincipal = true
		f.ctrl.SelectPrincipal("")
	} else {
		f.setOptions(fieldPrincipal, principals)
	}

	types := make([]string, 0, len(models.SecurableTypes()))
	for _, t := range models.SecurableTypes() {
		types = append(types, string(t))
	}
	f.setOptions(fieldObjectType, types)

	privs := make([]string, 0, len(models.Privileges()))
	for _, p := range models.Privileges() {
		privs = append(privs, string(p))
	}
	f.setOptions(fieldPrivilege, privs)

	f.reloadCascade(fieldCatalog)
	f.moveFocus(0)
}

// reloadCascade refreshes the pickers from level down.
func (f *permissionForm) reloadCascade(from formField) {
	depth := selection.Depth(f.ctrl.ObjectType())
	for _, field := range []formField{fieldCatalog, fieldSchema, fieldTable} {
		if field < from {
			continue
		}
		delete(f.options, field)
		if int(field-fieldCatalog) >= depth {
			continue
		}

		var (
			opts []string
			err  error
		)
		switch field {
		case fieldCatalog:
			opts, err = f.ctrl.CatalogChoices(f.ctx)
		case fieldSchema:
			opts, err = f.ctrl.SchemaChoices(f.ctx)
		case fieldTable:
			opts, err = f.ctrl.TableChoices(f.ctx)
		}
		if err != nil {
			f.err = err
			return
		}
		f.setOptions(field, opts)
	}
}

// setOptions installs opts for field and applies the first entry.
func (f *permissionForm) setOptions(field formField, opts []string) {
	f.options[field] = opts
	f.index[field] = 0
	f.apply(field, opts[0])
}

func (f *permissionForm) apply(field formField, value string) {
	switch field {
	case fieldAction:
		f.ctrl.SetAction(models.Action(value))
	case fieldPrincipal:
		f.ctrl.SelectPrincipal(value)
	case fieldObjectType:
		f.ctrl.SetObjectType(models.SecurableType(value))
	case fieldCatalog:
		f.ctrl.SelectCatalog(value)
	case fieldSchema:
		f.ctrl.SelectSchema(value)
	case fieldTable:
		f.ctrl.SelectTable(value)
	case fieldPrivilege:
		if err := f.ctrl.SetPrivilege(value); err != nil {
			f.err = err
		}
	}
}

// fields lists the visible form rows for the chosen object type.
func (f *permissionForm) fields() []formField {
	fields := []formField{fieldAction, fieldPrincipal, fieldObjectType}
	t := f.ctrl.ObjectType()
	if selection.UsesHierarchy(t) {
		fields = append(fields, []formField{fieldCatalog, fieldSchema, fieldTable}[:selection.Depth(t)]...)
	} else {
		fields = append(fields, fieldObjectName)
	}
	return append(fields, fieldPrivilege)
}

func (f *permissionForm) focused() formField {
	fields := f.fields()
	if f.focus >= len(fields) {
		f.focus = len(fields) - 1
	}
	return fields[f.focus]
}

// input returns the text input behind the focused row, if any.
func (f *permissionForm) input() *textinput.Model {
	switch f.focused() {
	case fieldObjectName:
		return &f.name
	case fieldPrincipal:
		if f.freePrincipal {
			return &f.principalInput
		}
	}
	return nil
}

func (f *permissionForm) typing() bool {
	return f.input() != nil
}

func (f *permissionForm) cycle(delta int) {
	field := f.focused()
	opts := f.options[field]
	if len(opts) == 0 {
		return
	}
	idx := (f.index[field] + delta + len(opts)) % len(opts)
	f.index[field] = idx
	f.apply(field, opts[idx])

	switch field {
	case fieldObjectType:
		f.name.SetValue("")
		f.reloadCascade(fieldCatalog)
	case fieldCatalog:
		f.reloadCascade(fieldSchema)
	case fieldSchema:
		f.reloadCascade(fieldTable)
	}
}

func (f *permissionForm) moveFocus(delta int) {
	n := len(f.fields())
	f.focus = (f.focus + delta + n) % n
	f.name.Blur()
	f.principalInput.Blur()
	if in := f.input(); in != nil {
		in.Focus()
	}
}

func (f *permissionForm) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up":
		f.moveFocus(-1)
		return nil
	case "down":
		f.moveFocus(1)
		return nil
	case "enter":
		f.submit()
		return nil
	}

	if in := f.input(); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		if f.focused() == fieldPrincipal {
			f.ctrl.SelectPrincipal(in.Value())
		} else {
			f.ctrl.SetObjectName(in.Value())
		}
		return cmd
	}

	switch msg.String() {
	case "left", "h":
		f.cycle(-1)
	case "right", "l", " ":
		f.cycle(1)
	}
	return nil
}

// submit sends one permissions update when the form is complete.
func (f *permissionForm) submit() {
	f.status, f.err = "", nil
	if !f.ctrl.CanSubmit() {
		f.err = fmt.Errorf("please fill in the principal, object name and privilege")
		return
	}

	result, err := f.manager.Apply(f.ctx, f.ctrl.Request())
	if err != nil {
		f.err = err
		return
	}
	f.status = result.Message
}

func (f *permissionForm) view() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Assign Role and Permission"))
	s.WriteString("\n\n")

	for i, field := range f.fields() {
		cursor := "  "
		if i == f.focus {
			cursor = focusStyle.Render("> ")
		}
		s.WriteString(fmt.Sprintf("%s%-12s ", cursor, fieldLabels[field]))
		if field == fieldObjectName {
			s.WriteString(f.name.View())
		} else if field == fieldPrincipal && f.freePrincipal {
			s.WriteString(f.principalInput.View())
		} else if opts := f.options[field]; len(opts) > 0 {
			s.WriteString("◀ " + opts[f.index[field]] + " ▶")
		}
		s.WriteString("\n")
	}

	if !selection.UsesHierarchy(f.ctrl.ObjectType()) {
		s.WriteString(infoStyle.Render(fmt.Sprintf("\nEnter the full, qualified name for the %s.", f.ctrl.ObjectType())))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	button := fmt.Sprintf("[ %s Access ]", f.ctrl.Action())
	if f.ctrl.CanSubmit() {
		s.WriteString(focusStyle.Render(button))
	} else {
		s.WriteString(helpStyle.Render(button + " (incomplete)"))
	}
	s.WriteString("\n")

	if f.status != "" {
		s.WriteString("\n" + successStyle.Render("✓ "+f.status) + "\n")
	}
	if f.err != nil {
		s.WriteString("\n" + errorStyle.Render("✗ "+f.err.Error()) + "\n")
	}

	help := []string{"↑/↓: Field", "←/→: Change", "Enter: Submit", "Tab: Switch tabs", "r: Refresh", "q: Quit"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}
