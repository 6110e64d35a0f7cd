// Package ui is the interactive terminal front end: a query editor
// over the storage engine with tabular result rendering.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gopu-inc/gsql/pkg/engine"
	"github.com/gopu-inc/gsql/pkg/parser"
	"github.com/gopu-inc/gsql/pkg/statements"
)

// Model is the terminal application state.
type Model struct {
	engine      *engine.Engine
	parser      *parser.Parser
	queryEditor textarea.Model
	resultTable table.Model
	spinner     spinner.Model
	help        help.Model

	width        int
	height       int
	executing    bool
	showHelp     bool
	lastResult   *statements.QueryResult
	lastError    error
	queryHistory []string

	lastQueryTime time.Duration
	keys          keyMap
}

type queryResultMsg struct {
	query    string
	result   *statements.QueryResult
	err      error
	duration time.Duration
}

func NewModel(eng *engine.Engine) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter your SQL query here..."
	ta.CharLimit = 5000
	ta.ShowLineNumbers = true
	ta.SetHeight(6)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(bgLight)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(textMuted)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textPrimary)
	ta.FocusedStyle.LineNumber = lipgloss.NewStyle().Foreground(textMuted)

	t := table.New(
		table.WithColumns([]table.Column{{Title: "Results", Width: 80}}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		engine:       eng,
		parser:       &parser.Parser{},
		queryEditor:  ta,
		resultTable:  t,
		spinner:      sp,
		help:         help.New(),
		keys:         keys,
		queryHistory: make([]string, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.executing {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			query := m.queryEditor.Value()
			if strings.TrimSpace(query) != "" {
				m.executing = true
				return m, m.executeQuery(query)
			}

		case key.Matches(msg, m.keys.Clear):
			m.queryEditor.SetValue("")
			m.lastResult = nil
			m.lastError = nil

		case key.Matches(msg, m.keys.ShowTables):
			m.lastError = nil
			m.lastResult = tableListing(m.engine.Tables())
			m.updateResultDisplay()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case queryResultMsg:
		m.executing = false
		m.lastResult = msg.result
		m.lastError = msg.err
		m.lastQueryTime = msg.duration

		if msg.err == nil {
			m.queryHistory = append(m.queryHistory, msg.query)
			m.updateResultDisplay()
		}

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if !m.executing {
		var cmd tea.Cmd
		m.queryEditor, cmd = m.queryEditor.Update(msg)
		cmds = append(cmds, cmd)

		m.resultTable, cmd = m.resultTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) executeQuery(query string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		stmt, err := m.parser.ParseStatement(query)
		if err != nil {
			return queryResultMsg{query: query, err: err, duration: time.Since(start)}
		}
		result, err := m.engine.Execute(stmt)
		return queryResultMsg{
			query:    query,
			result:   result,
			err:      err,
			duration: time.Since(start),
		}
	}
}

// tableListing presents the registered tables as a one-column result.
func tableListing(names []string) *statements.QueryResult {
	result := statements.NewSelectResult([]string{"table"}, nil)
	result.Table = strings.Join(names, ", ")
	return result
}

func (m *Model) updateResultDisplay() {
	if m.lastResult == nil || m.lastResult.Kind != statements.SelectResult {
		return
	}

	columns := make([]table.Column, len(m.lastResult.Columns))
	width := 16
	if len(m.lastResult.Columns) > 0 && m.width > 0 {
		width = max(12, (m.width-8)/len(m.lastResult.Columns))
	}
	for i, name := range m.lastResult.Columns {
		columns[i] = table.Column{Title: name, Width: width}
	}

	rows := make([]table.Row, len(m.lastResult.Rows))
	for i, row := range m.lastResult.Rows {
		cells := make([]string, len(row.Fields()))
		for j, field := range row.Fields() {
			cells[j] = field.String()
		}
		rows[i] = cells
	}

	m.resultTable.SetColumns(columns)
	m.resultTable.SetRows(rows)
}

func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, editorStyle.Render(m.queryEditor.View()))

	switch {
	case m.executing:
		sections = append(sections, resultStyle.Render(m.spinner.View()+" executing..."))
	case m.lastError != nil:
		sections = append(sections, errorStyle.Render("Error: "+m.lastError.Error()))
	case m.lastResult != nil:
		sections = append(sections, m.renderResult())
	}

	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("gsql")
	info := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("Tables: %d | Queries: %d",
			len(m.engine.Tables()), len(m.queryHistory)))
	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", info)
}

func (m Model) renderResult() string {
	r := m.lastResult
	switch r.Kind {
	case statements.SelectResult:
		if r.Table != "" {
			return resultStyle.Render(r.Table)
		}
		footer := lipgloss.NewStyle().
			Foreground(textMuted).
			Render(fmt.Sprintf("%d row(s)", len(r.Rows)))
		return resultStyle.Render(m.resultTable.View() + "\n" + footer)
	case statements.InsertResult:
		return successStyle.Render(fmt.Sprintf("inserted %d row(s)", r.RowsAffected))
	case statements.DeleteResult:
		return successStyle.Render(fmt.Sprintf("deleted %d row(s)", r.RowsAffected))
	case statements.CreateResult:
		return successStyle.Render(fmt.Sprintf("table %s created", r.Table))
	default:
		return successStyle.Render("ok")
	}
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf("ctrl+e execute | ctrl+h help | ctrl+c quit | last query: %s",
		m.lastQueryTime.Round(time.Microsecond))
	return statusBarStyle.Render(status)
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Execute,
			m.keys.Clear,
			m.keys.ShowTables,
			m.keys.Help,
			m.keys.Quit,
		},
	})
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Render(helpText)
}

// Run starts the interactive terminal session.
func Run(eng *engine.Engine) error {
	p := tea.NewProgram(NewModel(eng), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
