// Package tui is an interactive question and answer chat over one
// processed RFP.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rfpassist/internal/answer"
	"rfpassist/internal/embedding/tfidf"
	"rfpassist/internal/index"
)

// Asker is the TUI-facing subset of the RFP service.
type Asker interface {
	Ask(ctx context.Context, folder, question string) (answer.Outcome, error)
}

type exchange struct {
	question string
	answer   string
	found    bool
	err      error
	pending  bool
}

// answerMsg carries the result for history entry i.
type answerMsg struct {
	i   int
	out answer.Outcome
	err error
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	ctx      context.Context
	asker    Asker
	doc      index.Metadata
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  []exchange
	busy     bool
	status   string
	ready    bool
}

// New creates a chat over a processed document.
func New(ctx context.Context, asker Asker, doc index.Metadata) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the RFP and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		asker:    asker,
		doc:      doc,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready. Esc or Ctrl+C quits.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, hh := historyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header lines, status, input box
		if m.doc.Preview != "" {
			reserved++
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-hh)
		m.refresh()
		return m, nil
	case answerMsg:
		if msg.i < len(m.history) {
			e := &m.history[msg.i]
			e.pending = false
			e.answer, e.found, e.err = msg.out.Text, msg.out.Found, msg.err
		}
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case !msg.out.Found:
			m.status = "The document does not answer that."
		default:
			m.status = "Answered."
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.history = append(m.history, exchange{question: q, pending: true})
			m.input.SetValue("")
			m.busy = true
			m.status = "Thinking..."
			m.refresh()
			return m, tea.Batch(m.ask(len(m.history)-1, q), m.spinner.Tick)
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(i int, question string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.asker.Ask(m.ctx, m.doc.Folder, question)
		return answerMsg{i: i, out: out, err: err}
	}
}

// View renders the chat.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RFP Chat")
	doc := mutedStyle.Render(m.doc.DocName + "  (" + m.doc.Folder + ")")
	if m.doc.Preview != "" {
		doc += "\n" + mutedStyle.Width(m.viewport.Width).Render(m.doc.Preview)
	}
	history := historyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + doc + "\n" + history + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, e := range m.history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("Q: " + e.question))
		sb.WriteString("\n")
		switch {
		case e.pending:
			sb.WriteString("A: " + m.spinner.View())
		case e.err != nil:
			sb.WriteString(errorStyle.Render(fmt.Sprintf("A: error: %v", e.err)))
		case !e.found:
			sb.WriteString(mutedStyle.Render("A: " + answer.NotAvailable))
		default:
			sb.WriteString("A: " + highlightBestSentence(e.answer, e.question))
		}
	}
	return sb.String()
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	questionStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func splitSentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	var out []string
	end := 0
	for _, l := range locs {
		out = append(out, text[l[0]:l[1]])
		end = l[1]
	}
	// a trailing fragment without terminal punctuation
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// bestSentence returns the index of the sentence sharing the most query
// terms, the first one on ties, or -1 when the query has no terms.
func bestSentence(sentences []string, query string) int {
	q := toTokenSet(query)
	if len(q) == 0 {
		return -1
	}
	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(q, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	best := bestSentence(sentences, query)
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
		if i == best {
			sentences[i] = highlightStyle.Render(sentences[i])
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tfidf.Tokenize(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range toTokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
