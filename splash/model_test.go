package splash

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	launcherprogress "github.com/nativestart-go/launcher/progress"
)

func testScript(t *testing.T) *Script {
	t.Helper()
	s, err := Parse("[background]\nfilltext 0 0 Loading ${version}\n[progress]\nfilltext 0 1 ${status} ${progress}\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func TestNewModelDefaultsFrameRate(t *testing.T) {
	counter := launcherprogress.New(100)
	m := NewModel(testScript(t), counter, launcherprogress.NewChannel(), "1.0.0", 0)
	if m.limiter.Limit() != defaultFrameRateHz {
		t.Errorf("limiter rate = %v, want %v", m.limiter.Limit(), defaultFrameRateHz)
	}
}

func TestModelUpdateWindowSizeMsg(t *testing.T) {
	counter := launcherprogress.New(100)
	m := NewModel(testScript(t), counter, launcherprogress.NewChannel(), "1.0.0", 60)
	result, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if cmd != nil {
		t.Error("WindowSizeMsg should return nil cmd")
	}
	got := result.(*Model)
	if got.width != 100 || got.height != 30 {
		t.Errorf("width/height = %d/%d, want 100/30", got.width, got.height)
	}
}

func TestModelUpdateQuitKey(t *testing.T) {
	counter := launcherprogress.New(100)
	m := NewModel(testScript(t), counter, launcherprogress.NewChannel(), "1.0.0", 60)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.Done() {
		t.Error("expected Done() to be true after quit key")
	}
}

func TestModelUpdateStatusChangedEvent(t *testing.T) {
	counter := launcherprogress.New(100)
	m := NewModel(testScript(t), counter, launcherprogress.NewChannel(), "1.0.0", 60)
	_, _ = m.Update(eventMsg{Kind: launcherprogress.EventStatusChanged, Status: launcherprogress.StatusDownloading})
	if m.status != launcherprogress.StatusDownloading {
		t.Errorf("status = %v, want StatusDownloading", m.status)
	}
}

func TestModelUpdateDownloadDoneEventTransitionsToStarting(t *testing.T) {
	counter := launcherprogress.New(100)
	m := NewModel(testScript(t), counter, launcherprogress.NewChannel(), "1.0.0", 60)
	_, _ = m.Update(eventMsg{Kind: launcherprogress.EventDownloadDone})
	if m.status != launcherprogress.StatusStarting {
		t.Errorf("status = %v, want StatusStarting", m.status)
	}
}

func TestModelUpdateErrorEventQuits(t *testing.T) {
	counter := launcherprogress.New(100)
	m := NewModel(testScript(t), counter, launcherprogress.NewChannel(), "1.0.0", 60)
	wantErr := errors.New("boom")
	_, cmd := m.Update(eventMsg{Kind: launcherprogress.EventError, Err: wantErr})
	if cmd == nil {
		t.Fatal("expected quit command on error event")
	}
	if !m.Done() || m.FatalErr() != wantErr {
		t.Errorf("Done=%v FatalErr=%v, want true/%v", m.Done(), m.FatalErr(), wantErr)
	}
}

func TestModelInitReturnsBatchedCommands(t *testing.T) {
	counter := launcherprogress.New(100)
	ch := launcherprogress.NewChannel()
	m := NewModel(testScript(t), counter, ch, "1.0.0", 60)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("expected non-nil Init command")
	}
}
