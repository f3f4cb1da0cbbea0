package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/risekit/pkg/inspect"
	"github.com/matzehuels/risekit/pkg/widget"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorText)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags hydrateFlags
		query string
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <descriptor.json|page>",
		Short: "Browse a hydrated widget tree",
		Long: `Inspect hydrates its input and opens an interactive outline of the live
widget tree. --query narrows the outline to widgets whose elements match an
XPath expression; --plain prints a table instead.`,
		Example: `  risekit inspect home.json -m charts
  risekit inspect home.toml --query "//*[@data-k='chart']" --plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.hydrateInput(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			roots := h.Tree.Roots()
			if query != "" {
				if roots, err = inspect.Match(h.Document, query, roots...); err != nil {
					return fmt.Errorf("query: %w", err)
				}
			}
			rows := inspect.Outline(roots...)
			if len(rows) == 0 {
				printInfo("No widgets")
				return nil
			}
			if plain {
				fmt.Fprintln(c.Out, outlineTable(rows))
				return nil
			}
			_, err = tea.NewProgram(NewOutlineModel(rows), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&query, "query", "q", "", "XPath expression selecting widgets")
	cmd.Flags().BoolVar(&plain, "plain", false, "print a table instead of the interactive view")

	return cmd
}

// outlineTable renders rows as a bordered table.
func outlineTable(rows []inspect.Row) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Label(), r.Type, r.Rect(), r.State}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("Widget", "Type", "Bounds", "State").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if col == 0 {
				return listNormalStyle
			}
			return listDimStyle
		}).
		Render()
}

// =============================================================================
// OutlineModel - Interactive widget outline
// =============================================================================

// OutlineModel is the bubbletea model of the inspector: a scrolling
// outline with a detail pane for the widget under the cursor.
type OutlineModel struct {
	Rows   []inspect.Row
	Cursor int
	Height int
	Offset int
}

// NewOutlineModel creates an outline model.
func NewOutlineModel(rows []inspect.Row) OutlineModel {
	return OutlineModel{Rows: rows, Height: 15}
}

func (m OutlineModel) Init() tea.Cmd {
	return nil
}

func (m OutlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "p":
			m.toParent()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
		m.move(0)
	}
	return m, nil
}

func (m *OutlineModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Rows)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// toParent jumps to the row of the current widget's parent.
func (m *OutlineModel) toParent() {
	parent := m.Rows[m.Cursor].Node.Parent()
	for i := m.Cursor - 1; i >= 0 && parent != nil; i-- {
		if m.Rows[i].Node == parent {
			m.move(i - m.Cursor)
			return
		}
	}
}

func (m OutlineModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Widget Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  p parent  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		line := fmt.Sprintf("%-32s %s", r.Label(), listDimStyle.Render(r.Type))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(iconCursor+" ") + listSelectedStyle.Render(line))
		} else {
			b.WriteString("  " + listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detail())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// detail renders the fields of the row under the cursor.
func (m OutlineModel) detail() string {
	if len(m.Rows) == 0 {
		return ""
	}
	r := m.Rows[m.Cursor]
	fields := [][2]string{
		{"path", r.Path},
		{"bounds", r.Rect()},
		{"state", r.State},
		{"index", fmt.Sprint(r.RenderIndex)},
	}
	if r.Strategy != "" {
		fields = append(fields, [2]string{"strategy", r.Strategy})
	}
	if links := linkNames(r.Node); links != "" {
		fields = append(fields, [2]string{"links", links})
	}
	key := lipgloss.NewStyle().Foreground(colorMuted).Width(10)
	var b strings.Builder
	for _, f := range fields {
		b.WriteString("  " + key.Render(f[0]) + " " + StyleValue.Render(f[1]) + "\n")
	}
	return b.String()
}

func linkNames(n *widget.Node) string {
	var parts []string
	for name, to := range n.Links() {
		parts = append(parts, name+"→"+to.Path())
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}
