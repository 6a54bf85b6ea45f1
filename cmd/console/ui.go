package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/pkg/adventure"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const (
	PlaceHolderText    = "What do you do?"
	consoleCharacterID = "pc_console"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	adventure    *adventure.Adventure
	turn         *turn.Turn
	roller       *dice.Roller
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	ended        bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type actionResultMsg struct {
	result *actionResult
	err    error
}

type rollResolvedMsg struct {
	baseRoll int
	turn     *turn.Turn
	err      error
}

type advanceMsg struct {
	result *advanceResult
	err    error
}

type turnRefreshMsg struct {
	turn *turn.Turn
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	rollStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")). // gold
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, created *createAdventureResponse) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		adventure:    created.Adventure,
		turn:         created.Turn,
		roller:       dice.NewRandomRoller(),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
	}
}

// pendingRoll returns the player's unresolved roll requirement, if any.
func (m *ConsoleUI) pendingRoll() *turn.RollRequirement {
	if m.turn == nil {
		return nil
	}
	c, ok := m.turn.Character(consoleCharacterID)
	if !ok || c.RollRequired == nil || c.RollResult != nil {
		return nil
	}
	return c.RollRequired
}

// writeChatContent renders the current turn's narrative into the chat
// viewport for the current width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	if m.turn != nil {
		content.WriteString(speakerStyle.Render(m.turn.Title) + "\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	if m.turn != nil {
		content.WriteString(formatNarrative(m.turn.Narrative, chatWidth) + "\n\n")
	}

	if req := m.pendingRoll(); req != nil {
		line := fmt.Sprintf("A %s (difficulty %d, modifier %+d) is required. Type /roll to roll the d20.",
			req.RollType, req.Difficulty, req.ModifierValue())
		content.WriteString(rollStyle.Render(wordwrap.String(line, chatWidth)) + "\n\n")
	} else if m.ended {
		content.WriteString(titleStyle.Render("THE END") + "\n")
		content.WriteString("The adventure is complete. Press Ctrl+C to exit.\n\n")
	} else if m.turn != nil && m.turn.IsComplete() {
		content.WriteString(promptStyle.Render("Everyone has acted. Type /advance to continue the story.") + "\n\n")
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatNarrative wraps narrative text and highlights speaker prefixes
// and dice roll shortcodes.
func formatNarrative(text string, width int) string {
	lines := strings.Split(wordwrap.String(text, width), "\n")
	var formatted []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[DiceRoll:") {
			formatted = append(formatted, rollStyle.Render("🎲 "+trimmed))
			continue
		}
		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			if len(strings.Fields(speaker)) <= 2 {
				formatted = append(formatted, speakerStyle.Render(speaker+":")+trimmed[idx+1:])
				continue
			}
		}
		formatted = append(formatted, line)
	}

	return strings.Join(formatted, "\n")
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE") + "\n\n")

	content.WriteString("ID:\n")
	content.WriteString(m.adventure.ID.String()[:8] + "...\n\n")

	if m.turn != nil {
		content.WriteString("Encounter:\n")
		content.WriteString(m.turn.EncounterID + "\n\n")

		content.WriteString(fmt.Sprintf("Turn %d\n\n", m.turn.Order))

		content.WriteString("Party & foes:\n")
		for _, c := range m.turn.Characters {
			marker := " "
			if c.IsComplete {
				marker = "✓"
			}
			content.WriteString(fmt.Sprintf("%s %s  %d%% (init %d)\n", marker, c.Name, c.HealthPercent, c.Initiative))
		}
		content.WriteString("\n")

		if sc, ok := m.turn.LatestRoll(); ok {
			content.WriteString("Last roll:\n")
			content.WriteString(fmt.Sprintf("%s %d%+d=%d vs %d\n\n", sc.RollType, sc.BaseRoll, sc.Modifier, sc.Result, sc.Difficulty))
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• /roll: Roll d20\n")
	content.WriteString("• /advance: Next turn\n")
	content.WriteString("• /refresh: Refresh\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading || m.ended {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.err = nil
			m.loading = true
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(m.submitActionCmd(input), progressTick())
		}

	case actionResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			if msg.result.ActionImplausible {
				m.err = fmt.Errorf("%s", msg.result.Feedback)
			}
			if msg.result.Turn != nil {
				m.turn = msg.result.Turn
			}
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case rollResolvedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.turn = msg.turn
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case advanceMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			if msg.result.Turn != nil {
				m.turn = msg.result.Turn
			}
			if msg.result.Status == "adventure_complete" {
				m.ended = true
			}
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case turnRefreshMsg:
		if msg.err == nil && msg.turn != nil {
			m.turn = msg.turn
			m.writeChatContent()
			m.writeMetadata()
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		m.err = nil
		current := m.chatViewport.View()
		helpText := `
Commands:
• /roll - Roll the d20 for a pending check
• /advance - Move to the next turn when everyone has acted
• /refresh - Reload the current turn
• /copy - Copy the narrative to the clipboard
• Ctrl+C - Quit

Type your actions in plain language and press Enter.
`
		m.chatViewport.SetContent(current + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/roll":
		if m.pendingRoll() == nil {
			m.err = fmt.Errorf("no roll is pending")
			m.writeChatContent()
			return m, nil
		}
		m.err = nil
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.rollCmd(), progressTick())

	case "/advance":
		m.err = nil
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.advanceCmd(), progressTick())

	case "/refresh":
		return m, m.refreshCmd()

	case "/copy":
		if m.turn == nil {
			return m, nil
		}
		if err := clipboard.WriteAll(m.turn.Narrative); err != nil {
			m.err = fmt.Errorf("copy failed: %w", err)
		} else {
			m.err = nil
		}
		m.writeChatContent()
		return m, nil
	}

	m.err = fmt.Errorf("unknown command %s", cmd)
	m.writeChatContent()
	return m, nil
}

func (m ConsoleUI) submitActionCmd(action string) tea.Cmd {
	turnID := m.turn.ID
	return func() tea.Msg {
		result, err := submitAction(m.client, m.config, turnID, consoleCharacterID, action)
		return actionResultMsg{result, err}
	}
}

func (m ConsoleUI) rollCmd() tea.Cmd {
	turnID := m.turn.ID
	baseRoll := m.roller.D20()
	return func() tea.Msg {
		t, err := resolveRoll(m.client, m.config, turnID, consoleCharacterID, baseRoll)
		return rollResolvedMsg{baseRoll, t, err}
	}
}

func (m ConsoleUI) advanceCmd() tea.Cmd {
	turnID := m.turn.ID
	return func() tea.Msg {
		result, err := advanceTurn(m.client, m.config, turnID)
		return advanceMsg{result, err}
	}
}

func (m ConsoleUI) refreshCmd() tea.Cmd {
	turnID := m.turn.ID
	return func() tea.Msg {
		t, err := getTurn(m.client, m.config.APIBaseURL, turnID)
		return turnRefreshMsg{t, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
