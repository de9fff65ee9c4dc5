package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/huh"
	"github.com/samber/lo"

	"github.com/notepid/postboard/internal/account"
	"github.com/notepid/postboard/internal/app"
	"github.com/notepid/postboard/internal/message"
)

type messagesModel struct {
	app *app.App
	ctx context.Context

	width  int
	height int

	Done bool

	// author restricts the list to one account's messages when set.
	author *int

	state messagesState
	list  list.Model
	err   error

	accounts []*account.Record
	authors  map[int]string
	selected *message.Message

	form *huh.Form

	editText string
	editSave bool

	deleteConfirm bool

	postAuthor string
	postText   string
	postSave   bool
}

type messagesState int

const (
	messagesStateList messagesState = iota
	messagesStateDetail
	messagesStateEdit
	messagesStateDelete
	messagesStatePost
)

type msgItem struct {
	id    int
	title string
	desc  string
	kind  string
}

func (i msgItem) Title() string       { return i.title }
func (i msgItem) Description() string { return i.desc }
func (i msgItem) FilterValue() string { return i.title }

func newMessagesModel(ctx context.Context, a *app.App, author *int) *messagesModel {
	m := &messagesModel{app: a, ctx: ctx, author: author, state: messagesStateList}
	m.reloadMessages()
	return m
}

func (m *messagesModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *messagesModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = messagesStateList
				m.form = nil
				m.selected = nil
				m.reloadMessages()
			}
		}
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.state == messagesStateList {
				m.Done = true
				return nil
			}
		case "esc":
			m.back()
			return nil
		}
	}

	switch m.state {
	case messagesStateList:
		return m.updateList(msg)
	case messagesStateDetail:
		return m.updateDetail(msg)
	case messagesStateEdit, messagesStateDelete, messagesStatePost:
		return m.updateForm(msg)
	default:
		return nil
	}
}

func (m *messagesModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(msgItem)
			if !ok {
				return cmd
			}
			if it.kind == "post" {
				m.startPost()
				return nil
			}
			m.loadMessageDetail(it.id)
			return nil
		}
	}

	return cmd
}

func (m *messagesModel) updateDetail(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(msgItem)
			if !ok {
				return cmd
			}
			switch it.kind {
			case "edit":
				m.startEdit()
			case "delete":
				m.startDelete()
			case "back":
				m.back()
			}
			return nil
		}
	}

	return cmd
}

func (m *messagesModel) updateForm(msg tea.Msg) tea.Cmd {
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
	if m.form.State != huh.StateCompleted {
		return cmd
	}

	switch m.state {
	case messagesStateEdit:
		if m.editSave && m.selected != nil {
			if err := m.updateText(m.selected.ID, m.editText); err != nil {
				m.err = err
				return nil
			}
		}
		m.form = nil
		m.loadMessageDetail(m.selected.ID)
	case messagesStateDelete:
		if m.deleteConfirm && m.selected != nil {
			if err := m.deleteMessage(m.selected.ID); err != nil {
				m.err = err
				return nil
			}
		}
		m.form = nil
		if m.deleteConfirm {
			m.state = messagesStateList
			m.selected = nil
			m.reloadMessages()
		} else {
			m.loadMessageDetail(m.selected.ID)
		}
	case messagesStatePost:
		if m.postSave {
			author, err := strconv.Atoi(m.postAuthor)
			if err != nil {
				m.err = fmt.Errorf("invalid author %q", m.postAuthor)
				return nil
			}
			if err := m.post(author, m.postText); err != nil {
				m.err = err
				return nil
			}
		}
		m.form = nil
		m.state = messagesStateList
		m.reloadMessages()
	}
	return nil
}

func (m *messagesModel) post(author int, text string) error {
	_, err := m.app.Messages.CreateMessage(m.ctx, message.Message{PostedBy: author, Text: text})
	return err
}

func (m *messagesModel) updateText(id int, text string) error {
	n, err := m.app.Messages.UpdateMessageText(m.ctx, id, text)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("message %d no longer exists", id)
	}
	return nil
}

func (m *messagesModel) deleteMessage(id int) error {
	_, err := m.app.Messages.DeleteMessage(m.ctx, id)
	return err
}

func (m *messagesModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Messages error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case messagesStateList:
		m.list.Title = m.listTitle()
		return m.list.View() + "\n(q to quit, enter to select)"
	case messagesStateDetail:
		if m.selected == nil {
			return "No message selected\n\n(esc to go back)"
		}
		header := titleStyle.Render(fmt.Sprintf("Message #%d", m.selected.ID)) + "\n" +
			fmt.Sprintf("From: %s\nPosted: %s\n\n", m.authorName(m.selected.PostedBy), formatEpoch(m.selected.TimePostedEpoch))
		m.list.Title = "Actions"
		return header + m.selected.Text + "\n\n" + m.list.View() + "\n(esc to go back)"
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *messagesModel) listTitle() string {
	if m.author != nil {
		return "Messages by " + m.authorName(*m.author)
	}
	return "Messages"
}

func (m *messagesModel) authorName(id int) string {
	if name, ok := m.authors[id]; ok {
		return name
	}
	return "#" + strconv.Itoa(id)
}

func (m *messagesModel) reloadMessages() {
	records, err := m.app.Accounts.List(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.accounts = records
	m.authors = lo.SliceToMap(records, func(r *account.Record) (int, string) {
		return r.ID, r.Username
	})

	var msgs []*message.Message
	if m.author != nil {
		msgs, err = m.app.Messages.GetUserMessages(m.ctx, *m.author)
	} else {
		msgs, err = m.app.Messages.GetAllMessages(m.ctx)
	}
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(msgs)+1)
	items = append(items, msgItem{title: "+ Post new message", desc: "Create a message as an account", kind: "post"})
	items = append(items, lo.Map(msgs, func(msg *message.Message, _ int) list.Item {
		desc := fmt.Sprintf("#%d • %s • %s", msg.ID, m.authorName(msg.PostedBy), formatEpoch(msg.TimePostedEpoch))
		return msgItem{id: msg.ID, title: lo.Ellipsis(msg.Text, 60), desc: desc, kind: "msg"}
	})...)

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = m.listTitle()
}

func newMessageActionList(w, h int) list.Model {
	items := []list.Item{
		msgItem{title: "Edit text", desc: "Replace the message text", kind: "edit"},
		msgItem{title: "Delete", desc: "Remove the message", kind: "delete"},
		msgItem{title: "Back", desc: "Return to messages list", kind: "back"},
	}
	l := list.New(items, list.NewDefaultDelegate(), w, h-10)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	return l
}

func (m *messagesModel) loadMessageDetail(id int) {
	msg, err := m.app.Messages.GetMessageByID(m.ctx, id)
	if err != nil {
		m.err = err
		return
	}
	if msg == nil {
		m.err = fmt.Errorf("message %d no longer exists", id)
		return
	}
	m.selected = msg
	m.state = messagesStateDetail
	m.list = newMessageActionList(m.width, m.height)
}

func (m *messagesModel) startEdit() {
	m.state = messagesStateEdit
	m.editText = m.selected.Text
	m.editSave = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Message text").CharLimit(message.MaxTextLength).Value(&m.editText).Validate(message.ValidateText),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Save changes?").Value(&m.editSave),
		),
	)
}

func (m *messagesModel) startDelete() {
	m.state = messagesStateDelete
	m.deleteConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete message #%d?", m.selected.ID)).
				Description(dimStyle.Render(lo.Ellipsis(m.selected.Text, 80))).
				Value(&m.deleteConfirm),
		),
	)
}

func (m *messagesModel) startPost() {
	m.state = messagesStatePost
	m.postText = ""
	m.postSave = true

	options := lo.Map(m.accounts, func(r *account.Record, _ int) huh.Option[string] {
		return huh.NewOption(fmt.Sprintf("%s (#%d)", r.Username, r.ID), strconv.Itoa(r.ID))
	})
	m.postAuthor = ""
	if m.author != nil {
		m.postAuthor = strconv.Itoa(*m.author)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Author").Options(options...).Value(&m.postAuthor),
			huh.NewText().Title("Message text").CharLimit(message.MaxTextLength).Value(&m.postText).Validate(message.ValidateText),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Post message?").Value(&m.postSave),
		),
	)
}

func (m *messagesModel) back() {
	switch m.state {
	case messagesStateList:
		m.Done = true
	case messagesStateDetail:
		m.state = messagesStateList
		m.selected = nil
		m.reloadMessages()
	case messagesStatePost:
		m.state = messagesStateList
		m.form = nil
	default:
		m.form = nil
		if m.selected != nil {
			m.loadMessageDetail(m.selected.ID)
		} else {
			m.state = messagesStateList
			m.reloadMessages()
		}
	}
}

func formatEpoch(epoch int64) string {
	return time.Unix(epoch, 0).Local().Format("2006-01-02 15:04")
}
