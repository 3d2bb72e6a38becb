package splash

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	launcherprogress "github.com/nativestart-go/launcher/progress"
)

// defaultFrameRateHz is used when config.SplashSettings.FrameRateHz is unset.
const defaultFrameRateHz = 60

// minFrameInterval is the floor on the poll interval regardless of the
// configured frame rate, per the ~10ms poll bound.
const minFrameInterval = 10 * time.Millisecond

// Model is the bubbletea Model that reinterprets a parsed splash Script as a
// terminal render loop, polling a progress.Counter and progress.Channel
// instead of redrawing a native window each frame.
type Model struct {
	script  *Script
	counter *launcherprogress.Counter
	events  launcherprogress.Channel
	limiter *rate.Limiter
	bar     progress.Model

	version string
	dpi     string
	status  launcherprogress.Status

	width  int
	height int

	done  bool
	fatal error
}

// tickMsg drives one render-loop iteration; eventMsg carries a single
// progress.Event pulled off the channel.
type tickMsg time.Time
type eventMsg launcherprogress.Event

// NewModel builds a splash Model. frameRateHz <= 0 falls back to
// defaultFrameRateHz.
func NewModel(script *Script, counter *launcherprogress.Counter, events launcherprogress.Channel, version string, frameRateHz int) *Model {
	if frameRateHz <= 0 {
		frameRateHz = defaultFrameRateHz
	}
	return &Model{
		script:  script,
		counter: counter,
		events:  events,
		limiter: rate.NewLimiter(rate.Limit(frameRateHz), 1),
		bar:     progress.New(progress.WithDefaultGradient()),
		dpi:     "mdpi",
		version: version,
		width:   80,
		height:  24,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.tick())
}

func (m *Model) frameInterval() time.Duration {
	interval := time.Duration(float64(time.Second) / float64(m.limiter.Limit()))
	if interval < minFrameInterval {
		return minFrameInterval
	}
	return interval
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.frameInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the progress channel in its own goroutine, the
// bubbletea-idiomatic way to bridge an external channel into Update.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		var cmds []tea.Cmd
		cmds = append(cmds, m.tick())
		if barModel, cmd := m.bar.Update(msg); cmd != nil {
			m.bar = barModel.(progress.Model)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case eventMsg:
		switch msg.Kind {
		case launcherprogress.EventStatusChanged:
			m.status = msg.Status
		case launcherprogress.EventDownloadDone:
			m.status = launcherprogress.StatusStarting
		case launcherprogress.EventError:
			m.fatal = msg.Err
			m.done = true
			return m, tea.Quit
		}
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m *Model) View() string {
	return renderScript(m)
}

// Done reports whether the render loop has exited, either because the user
// quit or a fatal progress.Event arrived. FatalErr returns the triggering
// error, if any.
func (m *Model) Done() bool      { return m.done }
func (m *Model) FatalErr() error { return m.fatal }
