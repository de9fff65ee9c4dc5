package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/huh"
	"github.com/samber/lo"

	"github.com/notepid/postboard/internal/account"
	"github.com/notepid/postboard/internal/app"
)

type accountsModel struct {
	app *app.App
	ctx context.Context

	width  int
	height int

	Done bool

	state accountsState

	list list.Model
	err  error

	selected *account.Record
	msgCount int

	// messages is the author-filtered message browser opened from the detail
	// view.
	messages *messagesModel

	form *huh.Form

	createUsername string
	createPassword string
	createConfirm  string
	createSave     bool
}

type accountsState int

const (
	accountsStateList accountsState = iota
	accountsStateDetail
	accountsStateCreate
	accountsStateMessages
)

type accountItem struct {
	id    int
	title string
	desc  string
	kind  string
}

func (i accountItem) Title() string       { return i.title }
func (i accountItem) Description() string { return i.desc }
func (i accountItem) FilterValue() string { return i.title }

func newAccountsModel(ctx context.Context, a *app.App) *accountsModel {
	m := &accountsModel{app: a, ctx: ctx, state: accountsStateList}
	m.reloadList()
	return m
}

func (m *accountsModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
	if m.messages != nil {
		m.messages.SetSize(w, h)
	}
}

func (m *accountsModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = accountsStateList
				m.form = nil
				m.selected = nil
				m.reloadList()
			}
		}
		return nil
	}

	if m.state == accountsStateMessages {
		cmd := m.messages.Update(msg)
		if m.messages.Done {
			m.messages = nil
			m.state = accountsStateDetail
			m.refreshSelected()
			m.list = newAccountActionList(m.width, m.height)
		}
		return cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.state == accountsStateList {
				m.Done = true
				return nil
			}
		case "esc":
			m.back()
			return nil
		}
	}

	switch m.state {
	case accountsStateList:
		return m.updateList(msg)
	case accountsStateDetail:
		return m.updateDetail(msg)
	case accountsStateCreate:
		return m.updateForm(msg)
	default:
		return nil
	}
}

func (m *accountsModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(accountItem)
			if !ok {
				return cmd
			}
			if it.kind == "create" {
				m.startCreate()
				return nil
			}
			m.selectAccount(it.id)
			return nil
		}
	}

	return cmd
}

func (m *accountsModel) updateDetail(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(accountItem)
			if !ok {
				return cmd
			}
			switch it.kind {
			case "messages":
				m.openMessages()
			case "back":
				m.back()
			}
			return nil
		}
	}

	return cmd
}

func (m *accountsModel) updateForm(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		m.err = fmt.Errorf("internal error: form not initialized")
		return nil
	}
	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f
	if m.form.State == huh.StateCompleted {
		if m.createSave {
			if err := m.register(m.createUsername, m.createPassword); err != nil {
				m.err = err
				return nil
			}
		}
		m.form = nil
		m.state = accountsStateList
		m.reloadList()
		return nil
	}
	return cmd
}

// register goes through the account service so the admin tool applies the
// same rules as the API.
func (m *accountsModel) register(username, password string) error {
	_, err := m.app.Accounts.CreateAccount(m.ctx, account.Candidate{Username: username, Password: password})
	return err
}

func (m *accountsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Accounts error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case accountsStateList:
		m.list.Title = "Accounts"
		return m.list.View() + "\n(q to quit, enter to select)"
	case accountsStateDetail:
		if m.selected == nil {
			return "No account selected\n\n(esc to go back)"
		}
		header := titleStyle.Render(fmt.Sprintf("Account #%d: %s", m.selected.ID, m.selected.Username)) + "\n"
		meta := fmt.Sprintf("Registered: %s\nMessages: %d\n\n",
			m.selected.CreatedAt.Local().Format("2006-01-02 15:04"), m.msgCount,
		)
		m.list.Title = "Actions"
		return header + meta + m.list.View() + "\n(esc to go back)"
	case accountsStateMessages:
		return m.messages.View()
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *accountsModel) reloadList() {
	records, err := m.app.Accounts.List(m.ctx)
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(records)+1)
	items = append(items, accountItem{title: "+ Register new account", desc: "Add a new account", kind: "create"})
	items = append(items, lo.Map(records, func(r *account.Record, _ int) list.Item {
		desc := fmt.Sprintf("#%d • registered %s", r.ID, r.CreatedAt.Local().Format("2006-01-02"))
		return accountItem{id: r.ID, title: r.Username, desc: desc, kind: "account"}
	})...)

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = "Accounts"
}

func newAccountActionList(w, h int) list.Model {
	items := []list.Item{
		accountItem{title: "Messages", desc: "Browse messages posted by this account", kind: "messages"},
		accountItem{title: "Back", desc: "Return to accounts list", kind: "back"},
	}
	l := list.New(items, list.NewDefaultDelegate(), w, h-8)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	return l
}

func (m *accountsModel) selectAccount(id int) {
	records, err := m.app.Accounts.List(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	rec, ok := lo.Find(records, func(r *account.Record) bool { return r.ID == id })
	if !ok {
		m.err = fmt.Errorf("account %d no longer exists", id)
		return
	}
	m.selected = rec
	m.refreshSelected()
	m.state = accountsStateDetail
	m.list = newAccountActionList(m.width, m.height)
}

func (m *accountsModel) refreshSelected() {
	if m.selected == nil {
		return
	}
	msgs, err := m.app.Messages.GetUserMessages(m.ctx, m.selected.ID)
	if err == nil {
		m.msgCount = len(msgs)
	}
}

func (m *accountsModel) openMessages() {
	if m.selected == nil {
		return
	}
	author := m.selected.ID
	m.messages = newMessagesModel(m.ctx, m.app, &author)
	m.messages.SetSize(m.width, m.height)
	m.state = accountsStateMessages
}

func (m *accountsModel) startCreate() {
	m.state = accountsStateCreate
	m.createUsername = ""
	m.createPassword = ""
	m.createConfirm = ""
	m.createSave = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&m.createUsername).Validate(nonEmpty("username")),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.createPassword).Validate(minLength("password", 4)),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&m.createConfirm).Validate(func(s string) error {
				if s != m.createPassword {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Register account?").Value(&m.createSave),
		),
	)
}

func (m *accountsModel) back() {
	switch m.state {
	case accountsStateList:
		m.Done = true
	case accountsStateDetail:
		m.state = accountsStateList
		m.selected = nil
		m.form = nil
		m.reloadList()
	default:
		m.state = accountsStateList
		m.form = nil
		m.reloadList()
	}
}
