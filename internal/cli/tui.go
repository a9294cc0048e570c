package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/forgestats/forgestats/pkg/observability"
	"github.com/forgestats/forgestats/pkg/stats"
)

// categoryState is the display state of one category fetch.
type categoryState int

const (
	statePending categoryState = iota
	stateFetching
	stateRetrying
	stateDone
	stateFailed
)

// progressEvent is one hook event forwarded to the TUI.
type progressEvent struct {
	category string
	state    categoryState
	detail   string
}

// tuiFetchHooks forwards engine events into the TUI's event channel.
// Sends never block: a slow terminal drops display updates rather than
// stalling the fetch.
type tuiFetchHooks struct {
	observability.NoopFetchHooks
	events chan<- progressEvent
}

func (h *tuiFetchHooks) send(ev progressEvent) {
	select {
	case h.events <- ev:
	default:
	}
}

func (h *tuiFetchHooks) OnFetchStart(_ context.Context, category string) {
	h.send(progressEvent{category: category, state: stateFetching})
}

func (h *tuiFetchHooks) OnFetchComplete(_ context.Context, category string, d time.Duration, err error) {
	if err != nil {
		h.send(progressEvent{category: category, state: stateFailed, detail: "failed"})
		return
	}
	h.send(progressEvent{category: category, state: stateDone,
		detail: d.Round(time.Millisecond).String()})
}

func (h *tuiFetchHooks) OnRetry(_ context.Context, category string, attempt int, delay time.Duration, _ error) {
	h.send(progressEvent{category: category, state: stateRetrying,
		detail: fmt.Sprintf("retry %d in %s", attempt, delay.Round(time.Millisecond))})
}

func (h *tuiFetchHooks) OnPage(_ context.Context, category string, page, items int) {
	h.send(progressEvent{category: category, state: stateFetching,
		detail: fmt.Sprintf("page %d", page)})
}

// fetchModel is the bubbletea model showing one line per category.
type fetchModel struct {
	order  []stats.Category
	states map[string]categoryState
	detail map[string]string
	events <-chan progressEvent
	frame  int
}

type eventMsg progressEvent
type eventsClosedMsg struct{}
type tickMsg struct{}

var tuiFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func newFetchModel(cats []stats.Category, events <-chan progressEvent) fetchModel {
	return fetchModel{
		order:  cats,
		states: make(map[string]categoryState, len(cats)),
		detail: make(map[string]string, len(cats)),
		events: events,
	}
}

func waitForEvent(events <-chan progressEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m fetchModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.states[msg.category] = msg.state
		if msg.detail != "" {
			m.detail[msg.category] = msg.detail
		}
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m fetchModel) View() string {
	var b strings.Builder
	for _, cat := range m.order {
		name := string(cat)
		state := m.states[name]
		detail := m.detail[name]

		var icon, line string
		switch state {
		case stateDone:
			icon = styleIconSuccess.Render(iconSuccess)
			line = StyleValue.Render(name)
		case stateFailed:
			icon = styleIconError.Render(iconError)
			line = StyleValue.Render(name)
		case stateRetrying:
			icon = styleIconWarning.Render(tuiFrames[m.frame%len(tuiFrames)])
			line = StyleWarning.Render(name)
		case stateFetching:
			icon = styleIconSpinner.Render(tuiFrames[m.frame%len(tuiFrames)])
			line = StyleValue.Render(name)
		default:
			icon = StyleDim.Render("·")
			line = StyleDim.Render(name)
		}

		b.WriteString(icon + " " + line)
		if detail != "" {
			b.WriteString(" " + StyleDim.Render(detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// runFetchTUI starts the per-category progress display and registers the
// hooks feeding it. The returned stop function unregisters the hooks,
// drains the display, and blocks until the terminal is restored.
func runFetchTUI(cats []stats.Category) (stop func()) {
	events := make(chan progressEvent, 64)
	observability.SetFetchHooks(&tuiFetchHooks{events: events})

	p := tea.NewProgram(newFetchModel(cats, events), tea.WithOutput(os.Stderr))
	done := make(chan struct{})
	go func() {
		_, _ = p.Run()
		close(done)
	}()

	return func() {
		observability.SetFetchHooks(observability.NoopFetchHooks{})
		close(events)
		<-done
	}
}
