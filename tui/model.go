// Package tui is the terminal rendition of the houseplant search bar.
package tui

import (
	"strings"
	"sync"
	"time"

	"houseplants/binding"
	"houseplants/models"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options tunes the input timings.
type Options struct {
	Debounce      time.Duration
	SearchLatency time.Duration
}

// Messages posted from timer and store goroutines. They only signal that
// something changed; Update reads the current state from the bindings.
type (
	settledMsg   struct{}
	searchingMsg struct{}
	historyMsg   struct{}
)

// relay forwards messages into the running program. Posting happens on a
// new goroutine because callbacks may run inside Update, where a direct
// Send would block the event loop.
type relay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (r *relay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

func (r *relay) post(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()

	if send != nil {
		go send(msg)
	}
}

// Model is the bubbletea model for the search screen.
type Model struct {
	input   textinput.Model
	spinner spinner.Model
	help    help.Model

	history   *binding.HistoryBinding
	debounce  *binding.Debouncer[string]
	indicator *binding.SearchIndicator
	pointers  *binding.PointerBus
	dismiss   *binding.Dismisser
	relay     *relay

	records   []models.SearchRecord
	open      bool
	searching bool
	cursor    int // index into the visible recent searches, -1 for none
	width     int
	status    string

	// itemRows maps screen rows to the recent search rendered there
	itemRows map[int]string

	removeListener func()
}

// New builds the model over a history service. changes reports writes by
// other processes sharing the store.
func New(service *models.HistoryService, changes binding.ChangeSource, opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search for houseplants..."
	ti.Prompt = "🔍 "
	ti.CharLimit = 100
	ti.Width = 48
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := &Model{
		input:   ti,
		spinner: s,
		help:    help.New(),
		history: binding.NewHistoryBinding(service, changes),
		relay:   &relay{},
		cursor:  -1,
		width:   64,
	}

	m.debounce = binding.NewDebouncer("", opts.Debounce, func(string) { m.relay.post(settledMsg{}) })
	m.indicator = binding.NewSearchIndicator(opts.SearchLatency, func(bool) { m.relay.post(searchingMsg{}) })
	m.pointers = &binding.PointerBus{}
	// The region is set on first render; until then nothing is outside
	m.dismiss = binding.NewDismisser(m.pointers, nil, m.closeDropdown)
	m.removeListener = m.history.OnChange(func([]models.SearchRecord) { m.relay.post(historyMsg{}) })

	return m
}

// Attach routes background notifications into a running program.
func (m *Model) Attach(send func(tea.Msg)) {
	m.relay.attach(send)
}

// Init mounts the history and dismissal bindings.
func (m *Model) Init() tea.Cmd {
	m.history.Mount()
	m.records = m.history.History()
	m.dismiss.Mount()
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Close stops timers and subscriptions.
func (m *Model) Close() {
	m.debounce.Stop()
	m.indicator.Stop()
	m.dismiss.Unmount()
	m.history.Unmount()
	m.removeListener()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case settledMsg:
		m.indicator.Update(m.debounce.Value())
		m.searching = m.indicator.Searching()
		return m, nil

	case searchingMsg:
		m.searching = m.indicator.Searching()
		return m, nil

	case historyMsg:
		m.records = m.history.History()
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Close):
		if !m.open {
			return m, tea.Quit
		}
		m.closeDropdown()
		return m, nil

	case key.Matches(msg, keys.Up):
		m.open = true
		if m.cursor > -1 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		m.open = true
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.Clear):
		if m.history.Clear() {
			m.records = m.history.History()
			m.cursor = -1
			m.status = "History cleared"
		} else {
			m.status = "Could not clear history"
		}
		return m, nil

	case key.Matches(msg, keys.Submit):
		if items := m.visible(); m.cursor >= 0 && m.cursor < len(items) {
			m.selectTerm(items[m.cursor].Term)
			return m, nil
		}
		m.submit(m.input.Value())
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.open = true
		m.cursor = -1
		m.status = ""
		m.debounce.Set(after)
	}
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	m.pointers.Dispatch(binding.PointerEvent{
		Kind: binding.PointerDown,
		At:   binding.Point{X: msg.X, Y: msg.Y},
	})

	if term, ok := m.itemRows[msg.Y]; ok && m.open {
		m.selectTerm(term)
	}
}

// submit records the typed term and runs the search right away.
func (m *Model) submit(term string) {
	if strings.TrimSpace(term) == "" {
		return
	}
	if !m.history.Add(term) {
		m.status = "Could not save search"
	}
	m.records = m.history.History()
	m.open = true
	m.cursor = -1
	m.indicator.Update(term)
	m.searching = m.indicator.Searching()
}

// selectTerm reruns a recent search, which also moves it to the front.
func (m *Model) selectTerm(term string) {
	m.input.SetValue(term)
	m.input.CursorEnd()
	m.debounce.Set(term)
	m.submit(term)
}

func (m *Model) closeDropdown() {
	m.open = false
	m.cursor = -1
}

// visible returns the recent searches the dropdown currently lists.
func (m *Model) visible() []models.SearchRecord {
	return binding.FilterDropdown(m.records, m.input.Value()).Items
}

func (m *Model) clampCursor() {
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = n - 1
	}
}

var _ tea.Model = (*Model)(nil)

var spinnerStyle = lipgloss.NewStyle().Foreground(leafColor)
