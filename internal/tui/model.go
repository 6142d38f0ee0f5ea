package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"peermatch/internal/domain"
	"peermatch/internal/recommend"
)

// ServicePort is the TUI-facing subset of the recommendation service.
type ServicePort interface {
	Search(query string) []domain.Student
	Recommendations(id int, mode recommend.Mode, n int) ([]domain.ScoredStudent, string, error)
	GlobalRanking(n int) []domain.RankedStudent
	CompareModels() (domain.ComparisonReport, error)
}

var modes = []string{"content", "collaborative:knn", "collaborative:svd", "hybrid"}

// Model is the Bubble Tea model for the interactive console.
type Model struct {
	service  ServicePort
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool

	results []domain.Student
	cursor  int
	modeIdx int
}

// New creates a new TUI model instance.
func New(service ServicePort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a name or id and press Enter (tab: mode, r: recommend, g: ranking, m: compare models)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, status: "Roster loaded. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.results = m.service.Search(q)
				m.cursor = 0
				if len(m.results) == 0 {
					m.status = fmt.Sprintf("No students match %q", q)
				} else {
					m.status = fmt.Sprintf("%d students match %q", len(m.results), q)
				}
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "tab":
			m.modeIdx = (m.modeIdx + 1) % len(modes)
			m.status = "Mode: " + modes[m.modeIdx]
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "r":
			if len(m.results) > 0 && strings.TrimSpace(m.input.Value()) == "" {
				m.showRecommendations(m.results[m.cursor])
				return m, nil
			}
		case "g":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.showRanking()
				return m, nil
			}
		case "m":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.showComparison()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("PeerMatch — peer recommendations")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status + "  [" + modes[m.modeIdx] + "]")
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m *Model) showRecommendations(student domain.Student) {
	mode, err := recommend.ParseMode(modes[m.modeIdx])
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	recs, warning, err := m.service.Recommendations(student.ID, mode, 6)
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendations for %s (#%d), mode %s\n\n", student.Name, student.ID, modes[m.modeIdx])
	if warning != "" {
		b.WriteString(warnStyle.Render("! "+warning) + "\n\n")
	}
	if len(recs) == 0 {
		b.WriteString("No similar peers found.\n")
	}
	for i, rec := range recs {
		fmt.Fprintf(&b, "%2d. %-24s  score=%.3f\n", i+1, fmt.Sprintf("%s (#%d)", rec.Student.Name, rec.Student.ID), rec.Score)
	}
	m.status = fmt.Sprintf("%d recommendations for %s", len(recs), student.Name)
	m.viewport.SetContent(b.String())
}

func (m *Model) showRanking() {
	ranked := m.service.GlobalRanking(6)
	var b strings.Builder
	b.WriteString("Most active students\n\n")
	for i, entry := range ranked {
		fmt.Fprintf(&b, "%2d. %-24s  interactions=%d\n", i+1,
			fmt.Sprintf("%s (#%d)", entry.Student.Name, entry.Student.ID), entry.Interactions)
	}
	m.status = "Global ranking by interaction count"
	m.viewport.SetContent(b.String())
}

func (m *Model) showComparison() {
	m.status = "Comparing models..."
	report, err := m.service.CompareModels()
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	var b strings.Builder
	b.WriteString("Model comparison (hold-out split)\n\n")
	for _, res := range report.Results {
		fmt.Fprintf(&b, "%-4s  RMSE=%.4f  MAE=%.4f  (train=%d test=%d)\n",
			res.Model, res.RMSE, res.MAE, res.TrainCount, res.TestCount)
	}
	fmt.Fprintf(&b, "\nWinner: %s\n", report.Winner)
	m.status = "Model comparison done"
	m.viewport.SetContent(b.String())
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No students selected yet."
	}
	var b strings.Builder
	for i, s := range m.results {
		line := fmt.Sprintf("%s (#%d)  skills: %s", s.Name, s.ID, strings.Join(s.Skills, ", "))
		if i == m.cursor {
			line = highlightStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\nClear the input, then press r for recommendations.")
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
