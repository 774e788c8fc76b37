package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/ucadmin/models"
	"github.com/harperreed/ucadmin/selection"
)

// load fetches the listing behind the current tab. Reads go through the cache.
func (m *Model) load() {
	m.loadErr = nil
	var err error

	switch m.tab {
	case TabUsers:
		m.principals, err = m.dir.ListPrincipals(m.ctx)
	case TabCatalogs:
		m.catalogs, err = m.dir.ListCatalogs(m.ctx)
	case TabSchemas:
		if err = m.loadScope(1); err == nil {
			m.schemas, err = m.dir.ListSchemas(m.ctx, m.browse.Catalog())
		}
	case TabTables:
		if err = m.loadScope(2); err == nil {
			m.tables, err = m.dir.ListTables(m.ctx, m.browse.Catalog(), m.browse.Schema())
		}
	}
	m.loadErr = err
}

// loadScope fills the browse pickers down to depth levels, defaulting each to
// its first entry.
func (m *Model) loadScope(depth int) error {
	if _, ok := m.browseOptions[selection.LevelCatalog]; !ok {
		opts, err := m.browse.CatalogChoices(m.ctx)
		if err != nil {
			return err
		}
		m.browseOptions[selection.LevelCatalog] = opts
		m.browseIndex[selection.LevelCatalog] = 0
		m.browse.SelectCatalog(opts[0])
	}
	if depth < 2 {
		return nil
	}
	if _, ok := m.browseOptions[selection.LevelSchema]; !ok {
		opts, err := m.browse.SchemaChoices(m.ctx)
		if err != nil {
			return err
		}
		m.browseOptions[selection.LevelSchema] = opts
		m.browseIndex[selection.LevelSchema] = 0
		m.browse.SelectSchema(opts[0])
	}
	return nil
}

func (m *Model) cycleScope(level selection.Level) {
	opts := m.browseOptions[level]
	if len(opts) == 0 {
		return
	}
	idx := (m.browseIndex[level] + 1) % len(opts)
	m.browseIndex[level] = idx

	switch level {
	case selection.LevelCatalog:
		m.browse.SelectCatalog(opts[idx])
		delete(m.browseOptions, selection.LevelSchema)
	case selection.LevelSchema:
		m.browse.SelectSchema(opts[idx])
	}
	m.selectedRow = 0
	m.load()
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "c":
		if m.tab == TabSchemas || m.tab == TabTables {
			m.cycleScope(selection.LevelCatalog)
		}
	case "s":
		if m.tab == TabTables {
			m.cycleScope(selection.LevelSchema)
		}
	}
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabUsers:
		return len(m.principals.Users) + len(m.principals.Groups)
	case TabCatalogs:
		return len(m.catalogs)
	case TabSchemas:
		return len(m.schemas)
	case TabTables:
		return len(m.tables)
	}
	return 0
}

func (m Model) renderBrowseView() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(m.browseHeader()))
	s.WriteString("\n")

	if m.tab == TabSchemas || m.tab == TabTables {
		s.WriteString(m.renderScope())
		s.WriteString("\n")
	}

	if m.loadErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.loadErr)))
		s.WriteString("\n")
	} else {
		s.WriteString(m.renderTable())
		s.WriteString("\n")
	}

	s.WriteString(m.renderBrowseHelp())
	return s.String()
}

func (m Model) browseHeader() string {
	switch m.tab {
	case TabUsers:
		return "All Users and Groups"
	case TabCatalogs:
		return "Unity Catalog List"
	case TabSchemas:
		return "Schemas by Catalog"
	default:
		return "Tables by Schema"
	}
}

func (m Model) renderScope() string {
	catalog := m.scopeLabel(selection.LevelCatalog)
	if m.tab == TabSchemas {
		return fmt.Sprintf("Catalog: %s", catalog)
	}
	return fmt.Sprintf("Catalog: %s   Schema: %s", catalog, m.scopeLabel(selection.LevelSchema))
}

func (m Model) scopeLabel(level selection.Level) string {
	opts := m.browseOptions[level]
	if len(opts) == 0 {
		return "-"
	}
	return focusStyle.Render(opts[m.browseIndex[level]])
}

func (m Model) renderTable() string {
	var (
		columns []table.Column
		rows    []table.Row
		empty   string
	)

	switch m.tab {
	case TabUsers:
		columns = []table.Column{
			{Title: "Kind", Width: 8},
			{Title: "Name", Width: 40},
			{Title: "Display Name", Width: 30},
		}
		for _, u := range m.principals.Users {
			rows = append(rows, table.Row{"user", u.UserName, u.DisplayName})
		}
		for _, g := range m.principals.Groups {
			rows = append(rows, table.Row{"group", g.DisplayName, g.ID})
		}
		empty = "No users or groups found."

	case TabCatalogs:
		columns = []table.Column{
			{Title: "Name", Width: 30},
			{Title: "Owner", Width: 30},
			{Title: "Created", Width: 12},
		}
		for _, c := range m.catalogs {
			rows = append(rows, table.Row{c.Name, c.Owner, formatDate(c)})
		}
		empty = "No catalogs found."

	case TabSchemas:
		columns = []table.Column{
			{Title: "Name", Width: 30},
			{Title: "Full Name", Width: 40},
			{Title: "Owner", Width: 20},
		}
		for _, sc := range m.schemas {
			rows = append(rows, table.Row{sc.Name, sc.FullName(), sc.Owner})
		}
		empty = selection.NoSchemasPlaceholder

	case TabTables:
		columns = []table.Column{
			{Title: "Name", Width: 30},
			{Title: "Type", Width: 12},
			{Title: "Full Name", Width: 45},
		}
		for _, t := range m.tables {
			typ := t.Type
			if typ == "" {
				typ = models.DefaultTableType
			}
			rows = append(rows, table.Row{t.Name, typ, t.FullName()})
		}
		empty = selection.NoTablesPlaceholder
	}

	if len(rows) == 0 {
		return infoStyle.Render(empty)
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func formatDate(c models.Catalog) string {
	if c.CreatedAt.IsZero() {
		return ""
	}
	return c.CreatedAt.Format("2006-01-02")
}

func (m Model) renderBrowseHelp() string {
	help := []string{"↑/↓: Navigate", "Tab: Switch tabs"}
	switch m.tab {
	case TabSchemas:
		help = append(help, "c: Next catalog")
	case TabTables:
		help = append(help, "c: Next catalog", "s: Next schema")
	}
	help = append(help, "r: Refresh", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}
