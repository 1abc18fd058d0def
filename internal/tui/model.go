// Package tui is the terminal census explorer: pick a state, browse and
// filter its records, and create, edit or delete them through the API.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alorle/censo-escolar/client"
)

// API is the part of the REST client the explorer uses.
type API interface {
	ListUFs(ctx context.Context) ([]client.UF, error)
	ListInstitutions(ctx context.Context, uf string, opts client.ListOptions) (client.Page, error)
	CreateInstitution(ctx context.Context, in client.InstitutionInput) (client.Institution, error)
	UpdateInstitution(ctx context.Context, id int64, year int, in client.InstitutionInput) (client.Institution, error)
	DeleteInstitution(ctx context.Context, id int64, year int) error
}

// Mode is the screen the explorer shows.
type Mode int

// Explorer screens.
const (
	ModePicker Mode = iota
	ModeList
	ModeForm
	ModeConfirm
)

const loadPageSize = 500

// Status messages shown after each action.
const (
	msgCreated = "Instituição criada com sucesso!"
	msgUpdated = "Instituição atualizada com sucesso!"
	msgDeleted = "Instituição apagada com sucesso!"
	msgEmpty   = "Nenhuma instituição encontrada para os filtros aplicados."
)

type ufsLoadedMsg struct {
	ufs []client.UF
	err error
}

type institutionsLoadedMsg struct {
	uf    string
	items []client.Institution
	err   error
}

type savedMsg struct {
	inst    client.Institution
	editing bool
	id      int64
	year    int
	err     error
}

type deletedMsg struct {
	id   int64
	year int
	err  error
}

type ufItem struct{ client.UF }

func (i ufItem) FilterValue() string { return i.Name + " " + i.Acronym }
func (i ufItem) Title() string       { return fmt.Sprintf("%s (%s)", i.Name, i.Acronym) }
func (i ufItem) Description() string { return i.Region.Name }

// Model is the root bubbletea model.
type Model struct {
	ctx context.Context
	api API

	mode     Mode
	picker   list.Model
	selected client.UF
	records  Records
	yearIdx  int
	search   textinput.Model
	typing   bool
	cursor   int
	form     *FormModal
	confirm  *ConfirmModal
	loading  bool
	spinner  spinner.Model

	status    string
	statusErr bool
	width     int
	height    int
}

var _ tea.Model = (*Model)(nil)

// New creates the explorer. API calls run with ctx.
func New(ctx context.Context, api API) *Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = Styles.Selected
	delegate.Styles.SelectedDesc = Styles.Subtle

	picker := list.New(nil, delegate, 0, 0)
	picker.Title = "Mapa do Censo Escolar: escolha um estado"
	picker.SetShowStatusBar(false)
	picker.DisableQuitKeybindings()
	picker.Styles.Title = Styles.Header

	search := textinput.New()
	search.Placeholder = "Pesquisar por nome ou município..."
	search.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		ctx:     ctx,
		api:     api,
		mode:    ModePicker,
		picker:  picker,
		search:  search,
		spinner: s,
		loading: true,
	}
}

// Run starts the explorer on the terminal and blocks until it quits.
func Run(ctx context.Context, api API) error {
	_, err := tea.NewProgram(New(ctx, api), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Mode returns the current screen.
func (m *Model) Mode() Mode { return m.mode }

// Status returns the last status line and whether it reports an error.
func (m *Model) Status() (string, bool) { return m.status, m.statusErr }

// Visible returns the records that pass the current filters.
func (m *Model) Visible() []client.Institution {
	return m.records.Filter(YearFilters[m.yearIdx], m.search.Value())
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadUFs())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.picker.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ufsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus("Erro ao buscar estados: "+msg.err.Error(), true)
			return m, nil
		}
		items := make([]list.Item, len(msg.ufs))
		for i, uf := range msg.ufs {
			items[i] = ufItem{uf}
		}
		return m, m.picker.SetItems(items)

	case institutionsLoadedMsg:
		if msg.uf != m.selected.Acronym {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.records.Set(nil)
			m.setStatus("Erro ao buscar dados: "+msg.err.Error(), true)
			return m, nil
		}
		m.records.Set(msg.items)
		m.cursor = 0
		return m, nil

	case submitFormMsg:
		return m, m.save(msg)

	case savedMsg:
		return m.handleSaved(msg)

	case confirmDeleteMsg:
		m.mode = ModeList
		m.confirm = nil
		return m, m.remove(msg.id, msg.year)

	case deletedMsg:
		if msg.err != nil {
			m.setStatus("Erro ao apagar: "+msg.err.Error(), true)
			return m, nil
		}
		m.records.Remove(msg.id, msg.year)
		m.clampCursor()
		m.setStatus(msgDeleted, false)
		return m, nil

	case dismissMsg:
		m.mode = ModeList
		m.form = nil
		m.confirm = nil
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.mode {
	case ModePicker:
		return m.updatePicker(msg)
	case ModeList:
		return m.updateList(msg)
	case ModeForm:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case ModeConfirm:
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && m.picker.FilterState() != list.Filtering {
		switch key.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			item, ok := m.picker.SelectedItem().(ufItem)
			if !ok {
				return m, nil
			}
			return m, m.selectUF(item.UF)
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.typing {
		switch key.String() {
		case "esc", "enter":
			m.typing = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.cursor = 0
		return m, cmd
	}

	visible := m.Visible()
	switch key.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.mode = ModePicker
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "tab":
		m.yearIdx = (m.yearIdx + 1) % len(YearFilters)
		m.cursor = 0
	case "shift+tab":
		m.yearIdx = (m.yearIdx + len(YearFilters) - 1) % len(YearFilters)
		m.cursor = 0
	case "/":
		m.typing = true
		return m, m.search.Focus()
	case "r":
		return m, m.selectUF(m.selected)
	case "a":
		m.form = NewAddForm(m.selected)
		m.mode = ModeForm
		return m, m.form.Init()
	case "e", "enter":
		if len(visible) == 0 {
			return m, nil
		}
		m.form = NewEditForm(visible[m.cursor])
		m.mode = ModeForm
		return m, m.form.Init()
	case "d", "delete":
		if len(visible) == 0 {
			return m, nil
		}
		m.confirm = NewDeleteConfirm(visible[m.cursor])
		m.mode = ModeConfirm
	}
	return m, nil
}

func (m *Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus("Erro ao salvar: "+msg.err.Error(), true)
		if m.form != nil {
			m.form.SetError(msg.err.Error())
		}
		return m, nil
	}

	if msg.editing {
		m.records.Replace(msg.id, msg.year, msg.inst)
		m.setStatus(msgUpdated, false)
	} else {
		m.records.Add(msg.inst)
		m.setStatus(msgCreated, false)
	}
	m.form = nil
	m.mode = ModeList
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) clampCursor() {
	if n := len(m.Visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *Model) selectUF(uf client.UF) tea.Cmd {
	m.selected = uf
	m.mode = ModeList
	m.loading = true
	m.records.Set(nil)
	m.cursor = 0
	return tea.Batch(m.spinner.Tick, m.loadInstitutions(uf.Acronym))
}

func (m *Model) loadUFs() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		ufs, err := api.ListUFs(ctx)
		return ufsLoadedMsg{ufs: ufs, err: err}
	}
}

// loadInstitutions fetches every page of a state's records.
func (m *Model) loadInstitutions(uf string) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		var all []client.Institution
		for page := 1; ; page++ {
			p, err := api.ListInstitutions(ctx, uf, client.ListOptions{Page: page, PerPage: loadPageSize})
			if err != nil {
				return institutionsLoadedMsg{uf: uf, err: err}
			}
			all = append(all, p.Items...)
			if page >= p.Pagination.TotalPages {
				return institutionsLoadedMsg{uf: uf, items: all}
			}
		}
	}
}

func (m *Model) save(msg submitFormMsg) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		var (
			inst client.Institution
			err  error
		)
		if msg.editing {
			inst, err = api.UpdateInstitution(ctx, msg.id, msg.year, msg.input)
		} else {
			inst, err = api.CreateInstitution(ctx, msg.input)
		}
		return savedMsg{inst: inst, editing: msg.editing, id: msg.id, year: msg.year, err: err}
	}
}

func (m *Model) remove(id int64, year int) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		return deletedMsg{id: id, year: year, err: api.DeleteInstitution(ctx, id, year)}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.mode {
	case ModePicker:
		body = m.picker.View()
		if m.loading {
			body = m.spinner.View() + " Carregando estados..."
		}
	case ModeList:
		body = m.listView()
	case ModeForm:
		body = m.form.View()
	case ModeConfirm:
		body = m.confirm.View()
	}

	if m.status != "" {
		style := Styles.Success
		if m.statusErr {
			style = Styles.Error
		}
		body += "\n" + style.Render(m.status)
	}
	return body
}

func (m *Model) listView() string {
	var b strings.Builder
	b.WriteString(Styles.Header.Render("Instituições em " + m.selected.Name))
	b.WriteString("\n\n")

	b.WriteString(m.search.View())
	b.WriteString("   Filtrar por ano: ")
	for i, y := range YearFilters {
		label := yearLabel(y)
		if i == m.yearIdx {
			b.WriteString(Styles.Active.Render(label))
		} else {
			b.WriteString(" " + label + " ")
		}
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Carregando...\n")
		return b.String()
	}

	visible := m.Visible()
	if len(visible) == 0 {
		b.WriteString(Styles.Subtle.Render(msgEmpty) + "\n")
	}

	start, end := m.window(len(visible))
	for i := start; i < end; i++ {
		inst := visible[i]
		style := Styles.Normal
		marker := "  "
		if i == m.cursor {
			style = Styles.Selected
			marker = "> "
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s (ID: %d)", marker, displayName(inst), inst.ID)) + "\n")
		b.WriteString(Styles.Subtle.Render(fmt.Sprintf("    Local: %s - %s (Cód. UF: %d)  Matrículas (Ano %d): Infantil: %s | Fundamental: %s",
			inst.Municipality, inst.UFName, inst.UFCode, inst.Year,
			count(inst.InfantEnrollment), count(inst.ElementaryEnrollment))) + "\n")
	}

	b.WriteString("\n" + Styles.Help.Render(fmt.Sprintf(
		"%d de %d  ↑/↓: mover  /: pesquisar  Tab: ano  a: adicionar  e: editar  d: apagar  Esc: estados  q: sair",
		len(visible), m.records.Len())))
	return lipgloss.NewStyle().MaxWidth(max(m.width, 0)).Render(b.String())
}

// window returns the range of rows that fits the terminal around the cursor.
func (m *Model) window(n int) (int, int) {
	rows := (m.height - 8) / 2
	if rows < 1 {
		rows = 10
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return start, min(start+rows, n)
}

func count(n *int) string {
	if n == nil {
		return "-"
	}
	return itoa(*n)
}
