package cli

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nsg-cli/internal/nsg"
)

func typeRunes(t *testing.T, m loginModel, s string) loginModel {
	t.Helper()
	for _, r := range s {
		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = model.(loginModel)
	}
	return m
}

func pressKey(t *testing.T, m loginModel, key tea.KeyType) loginModel {
	t.Helper()
	model, _ := m.Update(tea.KeyMsg{Type: key})
	return model.(loginModel)
}

func TestLoginForm_CompletesWithAllFields(t *testing.T) {
	m := newLoginModel(nsg.Credentials{})

	m = typeRunes(t, m, "alice")
	m = pressKey(t, m, tea.KeyEnter)
	m = typeRunes(t, m, "secret")
	m = pressKey(t, m, tea.KeyEnter)
	m = typeRunes(t, m, "key-1")
	m = pressKey(t, m, tea.KeyEnter)

	if !m.done {
		t.Fatalf("expected form to be done, got %+v", m.fields)
	}
	creds := m.credentials()
	if creds.Username != "alice" || creds.Password != "secret" || creds.AppKey != "key-1" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestLoginForm_RefusesEmptyField(t *testing.T) {
	m := newLoginModel(nsg.Credentials{Username: "alice", AppKey: "key-1"})

	// Skip straight through the empty password field.
	m = pressKey(t, m, tea.KeyEnter)
	m = pressKey(t, m, tea.KeyEnter)
	m = pressKey(t, m, tea.KeyEnter)

	if m.done {
		t.Fatal("expected form to stay open with an empty password")
	}
	if m.errMsg == "" {
		t.Fatal("expected a validation message")
	}
}

func TestLoginForm_EscapeAborts(t *testing.T) {
	m := newLoginModel(nsg.Credentials{})
	m = pressKey(t, m, tea.KeyEsc)
	if !m.aborted {
		t.Fatal("expected aborted=true after esc")
	}
}

func TestLoginForm_PasswordFieldIsMasked(t *testing.T) {
	m := newLoginModel(nsg.Credentials{})
	m = pressKey(t, m, tea.KeyTab) // move to the password field
	if m.index != 1 {
		t.Fatalf("expected password field focus, got index %d", m.index)
	}
	if m.input.EchoMode != textinput.EchoPassword {
		t.Fatalf("expected password echo mode, got %v", m.input.EchoMode)
	}
}
