package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/models"
)

// ViewState represents the active tab in the TUI.
type ViewState int

const (
	StatusView ViewState = iota
	EditorView
	SetupView
)

var viewNames = [...]string{"Status", "Editor", "Setup"}

func (v ViewState) String() string {
	if v < StatusView || v > SetupView {
		return ""
	}
	return viewNames[v]
}

// editorFocus is the editor pane receiving keys.
type editorFocus int

const (
	focusPlaylists editorFocus = iota
	focusTracks
	focusForm
	focusNewPlaylist
)

// setupField is the setup row receiving keys.
type setupField int

const (
	fieldTheme setupField = iota
	fieldTextChannel
	fieldVoiceChannel
)

// ThemeSaver persists the selected theme preset.
type ThemeSaver interface {
	SaveTheme(name string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	dash    *dashboard.Dashboard
	themes  ThemeSaver
	theme   models.Theme
	palette *Palette

	view  ViewState
	focus editorFocus
	field setupField

	width  int
	height int

	playlistList list.Model
	trackList    list.Model
	titleInput   textinput.Model
	urlInput     textinput.Model
	nameInput    textinput.Model
	textInput    textinput.Model
	voiceInput   textinput.Model

	flash string
	err   error
	help  help.Model
	keys  keyMap
}

// NewModel creates a new TUI model over dash. themes may be nil, in which case theme changes are not persisted.
func NewModel(ctx context.Context, dash *dashboard.Dashboard, theme models.Theme, themes ThemeSaver) *Model {
	p := NewPalette(theme)
	m := &Model{
		ctx:          ctx,
		dash:         dash,
		themes:       themes,
		theme:        theme,
		palette:      p,
		playlistList: newList("Playlists", p),
		trackList:    newList("Tracks", p),
		titleInput:   newInput("Title", 200),
		urlInput:     newInput("https://...", 2048),
		nameInput:    newInput("Playlist name", 100),
		textInput:    newInput("Text channel id", 32),
		voiceInput:   newInput("Voice channel id", 32),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.refresh()
	return m
}

// Init starts listening for dashboard updates.
func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgUpdate:
			u := msg.data.(dashboard.Update)
			m.flash, m.err = u.Message, u.Err
			m.refresh()
			return m, m.waitForUpdate()
		case MsgActionDone:
			r := msg.data.(actionResult)
			m.flash, m.err = r.message, r.err
			m.refresh()
			return m, nil
		}
	}

	return m, nil
}

// View renders the active tab.
func (m *Model) View() string {
	var body string
	var keys []key.Binding

	switch m.view {
	case EditorView:
		body, keys = m.renderEditor(), m.keys.editorHelp(m.focus)
	case SetupView:
		body, keys = m.renderSetup(), m.keys.setupHelp()
	default:
		body, keys = m.renderStatus(), m.keys.statusHelp()
	}

	var footer string
	switch {
	case m.err != nil:
		footer = m.palette.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.flash != "":
		footer = m.palette.help.Render(m.flash)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", m.renderTabs(), body, footer, m.help.ShortHelpView(keys))
}

// ActiveView returns the active tab.
func (m *Model) ActiveView() ViewState {
	return m.view
}

// Theme returns the active theme preset.
func (m *Model) Theme() models.Theme {
	return m.theme
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.forceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.switchView(m.view + 1)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.switchView(m.view + 2)
		return m, nil
	}

	switch m.view {
	case EditorView:
		return m.handleEditorKeys(msg)
	case SetupView:
		return m.handleSetupKeys(msg)
	default:
		return m.handleStatusKeys(msg)
	}
}

func (m *Model) handleStatusKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.start):
		return m, m.run("Start requested", m.dash.StartBot)
	case key.Matches(msg, m.keys.stop):
		return m, m.run("Stop requested", m.dash.StopBot)
	case key.Matches(msg, m.keys.reboot):
		return m, m.run("Reboot requested", m.dash.RebootBot)
	case key.Matches(msg, m.keys.refresh):
		return m, m.run("Refreshing...", m.dash.Refresh)
	}
	return m, nil
}

func (m *Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusForm:
		return m.handleFormKeys(msg)
	case focusNewPlaylist:
		return m.handleNewPlaylistKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.save):
		return m, m.run("Save sent", m.dash.Save)
	case key.Matches(msg, m.keys.mode):
		return m, m.toggleMode()
	}

	if m.focus == focusTracks {
		return m.handleTrackKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.create):
		m.focus = focusNewPlaylist
		m.err = nil
		m.nameInput.Reset()
		return m, m.nameInput.Focus()
	case key.Matches(msg, m.keys.enter):
		item, ok := m.playlistList.SelectedItem().(playlistItem)
		if !ok {
			return m, nil
		}
		if m.fail(m.dash.Store().SelectPlaylist(item.name)) {
			return m, nil
		}
		m.focus = focusTracks
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	store := m.dash.Store()

	switch {
	case key.Matches(msg, m.keys.back):
		store.ClearSelection()
		if store.Mode() == models.ModeMusic {
			m.focus = focusPlaylists
		}
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.add):
		if !m.editable() {
			return m, nil
		}
		store.ClearSelection()
		return m, m.openForm("", "")
	case key.Matches(msg, m.keys.enter):
		item, ok := m.trackList.SelectedItem().(trackItem)
		if !ok || m.fail(store.SelectTrack(item.url)) {
			return m, nil
		}
		return m, m.openForm(item.title, item.url)
	case key.Matches(msg, m.keys.remove):
		item, ok := m.trackList.SelectedItem().(trackItem)
		if !ok || m.fail(store.SelectTrack(item.url)) || m.fail(store.RemoveTrack()) {
			return m, nil
		}
		m.flash = fmt.Sprintf("Removed %s", item.title)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.closeForm()
		m.dash.Store().ClearSelection()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.titleInput.Focused() {
			m.titleInput.Blur()
			return m, m.urlInput.Focus()
		}
		title, url := m.titleInput.Value(), m.urlInput.Value()
		if m.fail(m.dash.Store().UpsertTrack(url, title)) {
			return m, nil
		}
		m.closeForm()
		m.flash = fmt.Sprintf("Saved track %s", strings.TrimSpace(title))
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	if m.titleInput.Focused() {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.urlInput, cmd = m.urlInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleNewPlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.nameInput.Blur()
		m.focus = focusPlaylists
		return m, nil
	case key.Matches(msg, m.keys.enter):
		name := strings.TrimSpace(m.nameInput.Value())
		if m.fail(m.dash.Store().CreatePlaylist(name)) {
			return m, nil
		}
		m.nameInput.Blur()
		m.focus = focusTracks
		m.flash = fmt.Sprintf("Created playlist %s", name)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleSetupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		return m, m.focusField(m.field - 1)
	case key.Matches(msg, m.keys.down):
		return m, m.focusField(m.field + 1)
	}

	switch m.field {
	case fieldTheme:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.left):
			m.cycleTheme(-1)
		case key.Matches(msg, m.keys.right), key.Matches(msg, m.keys.enter):
			m.cycleTheme(1)
		}
		return m, nil

	case fieldTextChannel:
		if key.Matches(msg, m.keys.enter) {
			return m, m.focusField(fieldVoiceChannel)
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	default:
		if key.Matches(msg, m.keys.enter) {
			text, voice := m.textInput.Value(), m.voiceInput.Value()
			return m, m.run("Setup sent", func(ctx context.Context) error {
				return m.dash.SaveSetup(ctx, text, voice)
			})
		}
		var cmd tea.Cmd
		m.voiceInput, cmd = m.voiceInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) switchView(v ViewState) {
	m.view = v % 3
	m.err = nil
	m.titleInput.Blur()
	m.urlInput.Blur()
	m.nameInput.Blur()
	m.textInput.Blur()
	m.voiceInput.Blur()

	switch m.view {
	case EditorView:
		if m.focus == focusForm || m.focus == focusNewPlaylist {
			m.focus = focusTracks
		}
		if m.focus == focusTracks && m.dash.View().Current == "" {
			m.focus = focusPlaylists
		}
	case SetupView:
		m.focusField(m.field)
	}
}

func (m *Model) focusField(f setupField) tea.Cmd {
	m.field = min(max(f, fieldTheme), fieldVoiceChannel)
	m.textInput.Blur()
	m.voiceInput.Blur()

	switch m.field {
	case fieldTextChannel:
		return m.textInput.Focus()
	case fieldVoiceChannel:
		return m.voiceInput.Focus()
	}
	return nil
}

func (m *Model) cycleTheme(step int) {
	names := models.ThemeNames()
	i := slices.Index(names, m.theme.Name)
	next := names[(i+step+len(names))%len(names)]

	m.applyTheme(models.ThemeOrDefault(next))
	m.flash = fmt.Sprintf("Theme: %s", next)
	if m.themes != nil {
		m.fail(m.themes.SaveTheme(next))
	}
}

func (m *Model) applyTheme(t models.Theme) {
	m.theme = t
	m.palette = NewPalette(t)
	styleList(&m.playlistList, m.palette)
	styleList(&m.trackList, m.palette)
}

func (m *Model) toggleMode() tea.Cmd {
	mode := models.ModeAmbience
	m.focus = focusTracks
	if m.dash.Store().Mode() == models.ModeAmbience {
		mode = models.ModeMusic
		m.focus = focusPlaylists
	}

	return m.run(fmt.Sprintf("Switched to %s", mode), func(ctx context.Context) error {
		return m.dash.SwitchMode(ctx, mode)
	})
}

func (m *Model) openForm(title, url string) tea.Cmd {
	m.focus = focusForm
	m.err = nil
	m.titleInput.SetValue(title)
	m.urlInput.SetValue(url)
	m.urlInput.Blur()
	return m.titleInput.Focus()
}

func (m *Model) closeForm() {
	m.titleInput.Blur()
	m.urlInput.Blur()
	m.titleInput.Reset()
	m.urlInput.Reset()
	m.focus = focusTracks
}

// editable reports whether a playlist is open for track edits.
func (m *Model) editable() bool {
	return m.dash.View().Current != ""
}

// fail records err for display and reports whether it was non-nil.
func (m *Model) fail(err error) bool {
	if err == nil {
		return false
	}
	m.err = err
	return true
}

// run wraps a dashboard action as a command reporting its outcome.
func (m *Model) run(done string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return actionDoneMsg("", err)
		}
		return actionDoneMsg(done, nil)
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	ctx := m.ctx
	updates := m.dash.Updates()
	return func() tea.Msg {
		select {
		case u := <-updates:
			return updateMsg(u)
		case <-ctx.Done():
			return nil
		}
	}
}

// refresh rebuilds the lists from the store.
func (m *Model) refresh() {
	v := m.dash.View()

	unsaved := make(map[string]bool, len(v.Unsaved))
	for _, name := range v.Unsaved {
		unsaved[name] = true
	}

	playlists := make([]list.Item, 0, len(v.Playlists))
	for _, name := range v.Playlists {
		playlists = append(playlists, playlistItem{
			name:    name,
			current: name == v.Current,
			unsaved: unsaved[name],
			tracks:  len(v.Tracks),
		})
	}
	m.playlistList.SetItems(playlists)

	tracks := make([]list.Item, 0, len(v.Tracks))
	for _, url := range v.Tracks.URLs() {
		tracks = append(tracks, trackItem{url: url, title: v.Tracks[url]})
	}
	m.trackList.SetItems(tracks)

	switch {
	case v.Current == "":
		m.trackList.Title = "Tracks"
	case v.Dirty:
		m.trackList.Title = fmt.Sprintf("Tracks in '%s' *", v.Current)
	default:
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", v.Current)
	}
}

func (m *Model) resize() {
	h := max(m.height-12, 4)
	if m.dash.Store().Mode() == models.ModeAmbience {
		m.trackList.SetSize(m.width-4, h)
		return
	}
	m.playlistList.SetSize(m.width/3, h)
	m.trackList.SetSize(m.width-m.width/3-6, h)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		if ViewState(i) == m.view {
			tabs = append(tabs, m.palette.active.Render(name))
		} else {
			tabs = append(tabs, m.palette.tab.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderStatus() string {
	snap := m.dash.Status()

	control := func(label string, enabled bool) string {
		if enabled {
			return m.palette.ok.Render(label)
		}
		return m.palette.help.Render(label)
	}

	var b strings.Builder
	b.WriteString(m.palette.title.Render("Bot Status"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Web: %s\n", m.palette.Web(snap.Web))
	fmt.Fprintf(&b, "Bot: %s\n\n", m.palette.Bot(snap.Bot))
	fmt.Fprintf(&b, "%s  %s  %s",
		control("[s] Start", snap.Controls.Start),
		control("[x] Stop", snap.Controls.Stop),
		control("[r] Reboot", snap.Controls.Reboot),
	)
	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "\n\n%s", m.palette.help.Render("Updated "+snap.UpdatedAt.Format("15:04:05")))
	}
	return b.String()
}

func (m *Model) renderEditor() string {
	v := m.dash.View()

	header := m.palette.title.Render(fmt.Sprintf("Editing %s", v.Mode))
	if !v.Loaded {
		return fmt.Sprintf("%s\n%s", header, m.palette.warn.Render("Loading..."))
	}

	body := m.trackList.View()
	if v.Mode == models.ModeMusic {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.playlistList.View(), "  ", body)
	}

	switch m.focus {
	case focusForm:
		label := "Add track"
		if v.HasSelection() {
			label = "Edit track"
		}
		body += fmt.Sprintf("\n\n%s\nTitle: %s\nURL:   %s", m.palette.ok.Render(label), m.titleInput.View(), m.urlInput.View())
	case focusNewPlaylist:
		body += fmt.Sprintf("\n\n%s\n%s", m.palette.ok.Render("New playlist"), m.nameInput.View())
	}

	return fmt.Sprintf("%s\n%s", header, body)
}

func (m *Model) renderSetup() string {
	marker := func(f setupField) string {
		if m.field == f {
			return m.palette.ok.Render("> ")
		}
		return "  "
	}

	names := models.ThemeNames()
	presets := make([]string, len(names))
	for i, name := range names {
		if name == m.theme.Name {
			presets[i] = m.palette.active.Render(name)
		} else {
			presets[i] = m.palette.tab.Render(name)
		}
	}

	var b strings.Builder
	b.WriteString(m.palette.title.Render("Setup"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%sTheme: %s\n\n", marker(fieldTheme), strings.Join(presets, ""))
	fmt.Fprintf(&b, "%sText channel:  %s\n", marker(fieldTextChannel), m.textInput.View())
	fmt.Fprintf(&b, "%sVoice channel: %s", marker(fieldVoiceChannel), m.voiceInput.View())
	return b.String()
}
