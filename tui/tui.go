// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Five tabs for browsing the workspace directory and changing privileges
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
	"github.com/harperreed/ucadmin/selection"
)

// Tab is one top-level view.
type Tab int

const (
	TabUsers Tab = iota
	TabCatalogs
	TabSchemas
	TabTables
	TabPermissions
)

var tabNames = []string{"Users & Groups", "Catalogs", "Schemas", "Tables", "Manage Permissions"}

func (t Tab) String() string {
	return tabNames[t]
}

// Model is the main bubbletea model
type Model struct {
	ctx     context.Context
	dir     *directory.Cached
	manager *grants.Manager

	tab         Tab
	selectedRow int

	// Listings for the browse tabs, loaded when a tab is shown.
	principals models.Principals
	catalogs   []models.Catalog
	schemas    []models.Schema
	tables     []models.Table
	loadErr    error

	// Schemas and Tables tabs pick their scope through their own cascade.
	browse        *selection.Controller
	browseField   selection.Level
	browseOptions map[selection.Level][]string
	browseIndex   map[selection.Level]int

	form *permissionForm

	width  int
	height int
}

// NewModel creates a new TUI model. The context bounds every workspace call.
func NewModel(ctx context.Context, dir *directory.Cached, manager *grants.Manager) Model {
	m := Model{
		ctx:           ctx,
		dir:           dir,
		manager:       manager,
		tab:           TabUsers,
		browse:        selection.NewController(dir),
		browseField:   selection.LevelCatalog,
		browseOptions: make(map[selection.Level][]string),
		browseIndex:   make(map[selection.Level]int),
		width:         100,
		height:        30,
	}
	m.browse.SetObjectType(models.SecurableTable)
	m.form = newPermissionForm(ctx, dir, manager)
	m.load()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.tab {
	case TabPermissions:
		return m.frame(m.form.view())
	default:
		return m.frame(m.renderBrowseView())
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A focused text input swallows letters.
	typing := m.tab == TabPermissions && m.form.typing()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !typing {
			return m, tea.Quit
		}
	case "tab":
		m.switchTab((m.tab + 1) % Tab(len(tabNames)))
		return m, nil
	case "shift+tab":
		m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
		return m, nil
	case "r":
		if !typing {
			m.refresh()
			return m, nil
		}
	}

	if m.tab == TabPermissions {
		cmd := m.form.handleKey(msg)
		return m, cmd
	}
	m.handleBrowseKeys(msg)
	return m, nil
}

func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.selectedRow = 0
	m.load()
}

// refresh drops every cached listing and reloads the current tab.
func (m *Model) refresh() {
	m.dir.Refresh()
	m.browseOptions = make(map[selection.Level][]string)
	m.form.reload()
	m.load()
}

func (m Model) frame(body string) string {
	return titleStyle.Render("UNITY CATALOG ADMIN") + "\n\n" +
		m.renderTabs() + "\n\n" +
		body
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Run starts the full-screen program.
func Run(ctx context.Context, dir *directory.Cached, manager *grants.Manager) error {
	p := tea.NewProgram(NewModel(ctx, dir, manager), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().Bold(true)

	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
)
