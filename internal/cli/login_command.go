package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nsg-cli/internal/config"
	"nsg-cli/internal/nsg"
)

type loginField struct {
	Label  string
	Secret bool
	Value  string
}

type loginModel struct {
	fields  []loginField
	index   int
	input   textinput.Model
	errMsg  string
	done    bool
	aborted bool
}

func newLoginModel(prefill nsg.Credentials) loginModel {
	fields := []loginField{
		{Label: "Username", Value: prefill.Username},
		{Label: "Password", Secret: true, Value: prefill.Password},
		{Label: "Application Key", Value: prefill.AppKey},
	}
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 256
	input.Width = 48
	m := loginModel{fields: fields, input: input}
	m.loadFieldIntoInput()
	m.input.Focus()
	return m
}

func (m *loginModel) loadFieldIntoInput() {
	f := m.fields[m.index]
	m.input.SetValue(f.Value)
	if f.Secret {
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '•'
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
	m.input.CursorEnd()
}

func (m *loginModel) commitInput() {
	m.fields[m.index].Value = strings.TrimSpace(m.input.Value())
}

func (m loginModel) credentials() nsg.Credentials {
	return nsg.Credentials{
		Username: m.fields[0].Value,
		Password: m.fields[1].Value,
		AppKey:   m.fields[2].Value,
	}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "up", "shift+tab":
		m.commitInput()
		if m.index > 0 {
			m.index--
		}
		m.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.commitInput()
		if m.index < len(m.fields)-1 {
			m.index++
		}
		m.loadFieldIntoInput()
		return m, nil
	case "enter":
		m.commitInput()
		if m.index < len(m.fields)-1 {
			m.index++
			m.loadFieldIntoInput()
			return m, nil
		}
		for _, f := range m.fields {
			if f.Value == "" {
				m.errMsg = f.Label + " is required"
				return m, nil
			}
		}
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	m.fields[m.index].Value = strings.TrimSpace(m.input.Value())
	return m, cmd
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("NSG Login") + "\n")
	b.WriteString(mutedStyle.Render("enter: next field | tab/shift+tab: move | esc: cancel") + "\n\n")

	for i, f := range m.fields {
		marker := "  "
		if i == m.index {
			marker = accentStyle.Render("> ")
		}
		b.WriteString(marker + f.Label + "\n")
		if i == m.index {
			b.WriteString("  " + m.input.View() + "\n")
			continue
		}
		display := f.Value
		if f.Secret && display != "" {
			display = strings.Repeat("•", len(display))
		}
		if display == "" {
			display = mutedStyle.Render("(empty)")
		}
		b.WriteString("  " + display + "\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "NSG username")
	password := fs.String("password", "", "NSG password")
	appKey := fs.String("app-key", "", "NSG application key")
	noVerify := fs.Bool("no-verify", false, "skip the connection test")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds := nsg.Credentials{
		Username: strings.TrimSpace(*username),
		Password: strings.TrimSpace(*password),
		AppKey:   strings.TrimSpace(*appKey),
	}

	if creds.Username == "" || creds.Password == "" || creds.AppKey == "" {
		if !stdinIsTTY() {
			return errors.New("login requires --username, --password, and --app-key in non-interactive mode")
		}
		p := tea.NewProgram(newLoginModel(creds))
		finalModel, err := p.Run()
		if err != nil {
			return err
		}
		fm, ok := finalModel.(loginModel)
		if !ok || fm.aborted || !fm.done {
			fmt.Println("login cancelled")
			return nil
		}
		creds = fm.credentials()
	}

	if !*noVerify {
		fmt.Println(accentStyle.Render("→") + " testing connection to NSG...")
		client := nsg.NewClient(creds, nsg.Options{BaseURL: config.BaseURL()})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := client.TestConnection(ctx); err != nil {
			var terr *nsg.TransportError
			if errors.As(err, &terr) && terr.AuthFailure() {
				fmt.Println(errorStyle.Render("✗") + " authentication failed - check username, password, and application key")
				fmt.Println(mutedStyle.Render("  get credentials at https://www.nsgportal.org/"))
			}
			return err
		}
		fmt.Println(okStyle.Render("✓") + " connection verified")
	}

	if err := config.SaveCredentials(creds); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("✓") + " credentials saved to " + config.CredentialsLocation())
	fmt.Println()
	fmt.Println("Next:")
	fmt.Println("  nsg list                     list your jobs")
	fmt.Println("  nsg submit <zip> --tool <t>  submit a new job")
	return nil
}
