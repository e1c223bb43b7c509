package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tamgu/internal/core"
	"tamgu/internal/llm"
	"tamgu/internal/parser"
	"tamgu/internal/render"
	"tamgu/internal/workspace"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeTopic            // Typing a topic to generate
	modeAnswer           // Editing one worksheet answer
	modeDocs             // Browsing saved worksheets
)

// Messages returned by AI commands.
type (
	generatedMsg struct {
		article core.Article
		err     error
	}
	analyzedMsg struct{ err error }
	keywordsMsg struct {
		keywords []string
		err      error
	}
	savedMsg struct {
		doc core.SavedDocument
		err error
	}
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

// model is the Bubble Tea state. Session state lives in the workspace; the
// model only tracks the cursor and input mode.
type model struct {
	ctx       context.Context
	ws        *workspace.Controller
	input     textinput.Model
	mode      inputMode
	editField core.Field
	cursor    int
	docCursor int
	status    string
	errMsg    string
	width     int
	height    int
	quitting  bool
}

// newModel returns the initial state of the TUI model.
func newModel(ctx context.Context, ws *workspace.Controller) model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50

	return model{
		ctx:    ctx,
		ws:     ws,
		input:  ti,
		width:  100,
		height: 30,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case generatedMsg:
		if msg.err != nil {
			m.setError(msg.err, "글 생성 중 오류가 발생했습니다.")
			return m, nil
		}
		m.cursor = 0
		m.status = fmt.Sprintf("'%s' 글을 만들었습니다.", msg.article.Title)
		return m, nil

	case analyzedMsg:
		if msg.err != nil {
			m.setError(msg.err, "AI 분석에 실패했습니다. 잠시 후 다시 시도해주세요.")
			return m, nil
		}
		m.status = "AI 분석을 마쳤습니다."
		return m, nil

	case keywordsMsg:
		if msg.err != nil {
			m.setError(msg.err, "")
			return m, nil
		}
		m.status = "추천 키워드를 새로 받았습니다."
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.setError(msg.err, "")
			return m, nil
		}
		m.status = fmt.Sprintf("활동지를 저장했습니다 (%s).", msg.doc.Date)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeDocs:
			return m.updateDocs(msg)
		}
		return m.updateInput(msg)
	}

	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	articles := m.ws.Articles()
	key := msg.String()

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(articles)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(articles) {
			if _, err := m.ws.Select(articles[m.cursor].ID); err != nil {
				m.setError(err, "")
			} else {
				m.clearMessages()
			}
		}
	case "g":
		m.mode = modeTopic
		m.input.Reset()
		m.input.Placeholder = "탐구하고 싶은 주제를 입력하세요"
		cmd := m.input.Focus()
		return m, cmd
	case "a":
		m.clearMessages()
		m.status = "AI가 글을 분석하고 있습니다..."
		return m, m.analyzeCmd()
	case "s":
		m.clearMessages()
		return m, m.saveCmd()
	case "d":
		next := m.ws.Difficulty().Next()
		_ = m.ws.SetDifficulty(next)
		m.status = "난이도: " + next.Label()
	case "r":
		m.clearMessages()
		m.status = "추천 키워드를 불러오는 중..."
		return m, m.keywordsCmd()
	case "v":
		m.clearMessages()
		m.mode = modeDocs
		m.docCursor = 0
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '6' {
			if _, ok := m.ws.Selected(); !ok {
				m.setError(workspace.ErrNoArticle, "")
				return m, nil
			}
			f := core.AllFields()[key[0]-'1']
			m.mode = modeAnswer
			m.editField = f
			m.input.SetValue(m.ws.Answers().Get(f))
			m.input.Placeholder = f.Hint()
			cmd := m.input.Focus()
			return m, cmd
		}
	}
	return m, nil
}

// updateDocs handles the saved worksheet list: enter opens, x deletes.
func (m model) updateDocs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	docs := m.ws.Documents()

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "esc", "v":
		m.mode = modeBrowse
	case "up", "k":
		if m.docCursor > 0 {
			m.docCursor--
		}
	case "down", "j":
		if m.docCursor < len(docs)-1 {
			m.docCursor++
		}
	case "enter":
		if m.docCursor >= len(docs) {
			return m, nil
		}
		doc, err := m.ws.Open(docs[m.docCursor].ID)
		if err != nil {
			m.setError(err, "")
			return m, nil
		}
		m.mode = modeBrowse
		m.clearMessages()
		m.status = fmt.Sprintf("'%s' 활동지를 열었습니다.", doc.ArticleTitle)
	case "x", "delete":
		if m.docCursor >= len(docs) {
			return m, nil
		}
		doc := docs[m.docCursor]
		if err := m.ws.Delete(m.ctx, doc.ID); err != nil {
			m.setError(err, "")
			return m, nil
		}
		m.clearMessages()
		m.status = fmt.Sprintf("'%s' 활동지를 지웠습니다.", doc.ArticleTitle)
		if m.docCursor > 0 && m.docCursor >= len(docs)-1 {
			m.docCursor--
		}
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		mode := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		m.input.Reset()

		if mode == modeTopic {
			if strings.TrimSpace(value) == "" {
				m.setError(workspace.ErrEmptyTopic, "")
				return m, nil
			}
			m.clearMessages()
			m.status = fmt.Sprintf("'%s' 글을 쓰는 중...", strings.TrimSpace(value))
			return m, m.generateCmd(value)
		}
		if err := m.ws.SetAnswer(m.editField, value); err != nil {
			m.setError(err, "")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) generateCmd(topic string) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		article, err := ws.Generate(ctx, topic)
		return generatedMsg{article: article, err: err}
	}
}

func (m model) analyzeCmd() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		_, err := ws.Analyze(ctx)
		return analyzedMsg{err: err}
	}
}

func (m model) keywordsCmd() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		keywords, err := ws.RefreshKeywords(ctx)
		return keywordsMsg{keywords: keywords, err: err}
	}
}

func (m model) saveCmd() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		doc, err := ws.Save(ctx)
		return savedMsg{doc: doc, err: err}
	}
}

func (m *model) clearMessages() {
	m.status = ""
	m.errMsg = ""
}

// setError shows notice for failed AI calls and the error text otherwise.
func (m *model) setError(err error, notice string) {
	m.status = ""
	switch {
	case errors.Is(err, workspace.ErrBusy):
		m.errMsg = "이미 AI 요청을 처리하고 있습니다."
	case errors.Is(err, workspace.ErrNoArticle):
		m.errMsg = "먼저 글을 선택하세요."
	case errors.Is(err, workspace.ErrEmptyTopic):
		m.errMsg = "주제를 입력하세요."
	case llm.IsConfigError(err):
		m.errMsg = "AI 서비스가 설정되지 않았습니다. API 키를 확인해주세요."
	case notice != "" && (llm.IsServiceError(err) || parser.IsParseError(err)):
		m.errMsg = notice
	default:
		m.errMsg = err.Error()
	}
}

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}

	paneWidth := m.width/2 - 5
	if paneWidth < 20 {
		paneWidth = 20
	}
	docStyle := lipgloss.NewStyle().Margin(1, 2)
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(0, 1).Width(paneWidth)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(0, 1).Width(paneWidth)

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Render(m.leftPane()),
		detailStyle.Render(m.worksheetView(paneWidth-2)),
	)

	var b strings.Builder
	b.WriteString(mainContent)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("추천 키워드: " + strings.Join(m.ws.Keywords(), " · ")))
	b.WriteString("\n")

	if m.mode == modeTopic || m.mode == modeAnswer {
		prompt := "주제: "
		if m.mode == modeAnswer {
			prompt = m.editField.Label() + ": "
		}
		b.WriteString(prompt + m.input.View() + "\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("[↑/↓] 이동 | [enter] 선택 | [g] 글 생성 | [1-6] 답 쓰기 | [a] AI 분석 | [s] 저장 | [d] 난이도 | [r] 키워드 | [v] 보관함 | [q] 종료"))

	return docStyle.Render(b.String())
}

func (m model) leftPane() string {
	if m.mode == modeDocs {
		return m.documentList()
	}
	return m.articleList()
}

func (m model) documentList() string {
	docs := m.ws.Documents()

	var b strings.Builder
	b.WriteString(titleStyle.Render("내 보관함") + "\n\n")
	if len(docs) == 0 {
		b.WriteString(mutedStyle.Render("저장된 활동지가 없습니다."))
		return b.String()
	}
	for i, d := range docs {
		cursor := "  "
		if i == m.docCursor {
			cursor = cursorStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, d.Date, d.ArticleTitle)
	}
	b.WriteString("\n" + mutedStyle.Render("[enter] 열기 | [x] 삭제 | [esc] 돌아가기"))
	return b.String()
}

func (m model) articleList() string {
	articles := m.ws.Articles()
	selected, _ := m.ws.Selected()

	var b strings.Builder
	b.WriteString(titleStyle.Render("읽을거리") + "\n\n")
	if len(articles) == 0 {
		b.WriteString(mutedStyle.Render("글이 없습니다. [g]로 새 글을 만들어 보세요."))
		return b.String()
	}
	for i, a := range articles {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		marker := ""
		if a.ID == selected.ID {
			marker = " ✓"
		}
		fmt.Fprintf(&b, "%s[%s] %s%s\n", cursor, a.Category, a.Title, marker)
	}
	return b.String()
}

func (m model) worksheetView(width int) string {
	article, ok := m.ws.Selected()
	if !ok {
		return mutedStyle.Render("글을 선택하면 활동지가 열립니다.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(article.Title) + "\n")
	b.WriteString(mutedStyle.Render(strings.Join([]string{article.Category, article.Source, "난이도 " + m.ws.Difficulty().Label()}, " · ")) + "\n\n")

	paras := render.Paragraphs(article.Content)
	for i, p := range paras {
		if i == 3 {
			b.WriteString(mutedStyle.Render("…") + "\n")
			break
		}
		b.WriteString(strings.Join(render.Wrap(p, width), "\n") + "\n")
	}
	b.WriteString("\n")

	answers := m.ws.Answers()
	for i, f := range core.AllFields() {
		answer := answers.Get(f)
		if answer == "" {
			answer = mutedStyle.Render(f.Hint())
		}
		fmt.Fprintf(&b, "%d %s %s\n", i+1, labelStyle.Render(f.Label()), answer)
	}
	return b.String()
}

func (m model) statusLine() string {
	if m.ws.Busy() {
		return "⏳ " + m.status
	}
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	if m.ws.StorageDegraded() {
		return errorStyle.Render("저장소를 사용할 수 없어 이번 실행 동안만 보관합니다.") + " " + m.status
	}
	return m.status
}

// Run starts the Bubble Tea application and blocks until the user quits.
func Run(ctx context.Context, ws *workspace.Controller) error {
	p := tea.NewProgram(newModel(ctx, ws), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
