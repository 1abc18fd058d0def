package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alorle/censo-escolar/client"
)

// submitFormMsg is sent when the form is saved with well-formed values.
type submitFormMsg struct {
	input   client.InstitutionInput
	editing bool
	id      int64
	year    int
}

// dismissMsg closes the open modal.
type dismissMsg struct{}

// Form field keys, in display order.
const (
	keyID           = "CO_ENTIDADE"
	keyYear         = "ano"
	keyName         = "NO_ENTIDADE"
	keyMunicipality = "NO_MUNICIPIO"
	keyUFCode       = "CO_UF"
	keyUFName       = "NO_UF"
	keyUFAcronym    = "SG_UF"
	keyInfant       = "QT_MAT_INF"
	keyElementary   = "QT_MAT_FUND"
)

type formField struct {
	key     string
	label   string
	numeric bool
	locked  bool
	input   textinput.Model
}

// FormModal edits one record. When editing, the key fields are shown but
// cannot be changed.
type FormModal struct {
	title   string
	editing bool
	id      int64
	year    int
	fields  []formField
	focus   int
	err     string
}

func newFormModal(title string, editing bool, values map[string]string) *FormModal {
	specs := []struct {
		key, label string
		numeric    bool
	}{
		{keyID, "Código da Entidade", true},
		{keyYear, "Ano do Censo", true},
		{keyName, "Nome da Entidade", false},
		{keyMunicipality, "Município", false},
		{keyUFCode, "Código da UF", true},
		{keyUFName, "Nome da UF", false},
		{keyUFAcronym, "Sigla da UF", false},
		{keyInfant, "Matrículas (Infantil)", true},
		{keyElementary, "Matrículas (Fundamental)", true},
	}

	f := &FormModal{title: title, editing: editing}
	for _, s := range specs {
		ti := textinput.New()
		ti.Width = 40
		ti.SetValue(values[s.key])
		if s.key == keyUFAcronym {
			ti.CharLimit = 2
		}
		f.fields = append(f.fields, formField{
			key:     s.key,
			label:   s.label,
			numeric: s.numeric,
			locked:  editing && (s.key == keyID || s.key == keyYear),
			input:   ti,
		})
	}

	f.focus = -1
	f.moveFocus(1)
	return f
}

// NewAddForm opens an empty form pre-filled with the selected state.
func NewAddForm(uf client.UF) *FormModal {
	return newFormModal("Adicionar Nova Instituição", false, map[string]string{
		keyUFCode:     itoa(uf.ID),
		keyUFName:     uf.Name,
		keyUFAcronym:  uf.Acronym,
		keyInfant:     "0",
		keyElementary: "0",
	})
}

// NewEditForm opens a form holding inst. Its key cannot be edited.
func NewEditForm(inst client.Institution) *FormModal {
	values := map[string]string{
		keyID:           strconv.FormatInt(inst.ID, 10),
		keyYear:         itoa(inst.Year),
		keyName:         inst.Name,
		keyMunicipality: inst.Municipality,
		keyUFCode:       itoa(inst.UFCode),
		keyUFName:       inst.UFName,
		keyUFAcronym:    inst.UFAcronym,
		keyInfant:       "0",
		keyElementary:   "0",
	}
	if inst.InfantEnrollment != nil {
		values[keyInfant] = itoa(*inst.InfantEnrollment)
	}
	if inst.ElementaryEnrollment != nil {
		values[keyElementary] = itoa(*inst.ElementaryEnrollment)
	}

	f := newFormModal("Editar Instituição", true, values)
	f.id = inst.ID
	f.year = inst.Year
	return f
}

// Init implements tea.Model.
func (f *FormModal) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation and editing keys.
func (f *FormModal) Update(msg tea.Msg) (*FormModal, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return f, func() tea.Msg { return dismissMsg{} }
		case "tab", "down":
			f.moveFocus(1)
			return f, nil
		case "shift+tab", "up":
			f.moveFocus(-1)
			return f, nil
		case "ctrl+s":
			return f, f.submit()
		case "enter":
			if f.focus == f.lastEditable() {
				return f, f.submit()
			}
			f.moveFocus(1)
			return f, nil
		}
	}

	if f.focus < 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

// SetError shows a message inside the modal.
func (f *FormModal) SetError(msg string) {
	f.err = msg
}

// Focused returns the key of the focused field.
func (f *FormModal) Focused() string {
	if f.focus < 0 {
		return ""
	}
	return f.fields[f.focus].key
}

func (f *FormModal) submit() tea.Cmd {
	in, err := f.Input()
	if err != nil {
		f.err = err.Error()
		return nil
	}
	f.err = ""
	msg := submitFormMsg{input: in, editing: f.editing, id: f.id, year: f.year}
	return func() tea.Msg { return msg }
}

// Input converts the fields into a request body. Blank key fields are left
// out for the server to report; blank enrollment counts are zero.
func (f *FormModal) Input() (client.InstitutionInput, error) {
	var in client.InstitutionInput
	for _, field := range f.fields {
		raw := strings.TrimSpace(field.input.Value())

		if !field.numeric {
			v := field.input.Value()
			switch field.key {
			case keyName:
				in.Name = &v
			case keyMunicipality:
				in.Municipality = &v
			case keyUFName:
				in.UFName = &v
			case keyUFAcronym:
				in.UFAcronym = &v
			}
			continue
		}

		if raw == "" {
			if field.key == keyInfant || field.key == keyElementary {
				raw = "0"
			} else {
				continue
			}
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return client.InstitutionInput{}, fmt.Errorf("%s: deve ser um número inteiro", field.label)
		}
		v := int(n)
		switch field.key {
		case keyID:
			in.ID = &n
		case keyYear:
			in.Year = &v
		case keyUFCode:
			in.UFCode = &v
		case keyInfant:
			in.InfantEnrollment = &v
		case keyElementary:
			in.ElementaryEnrollment = &v
		}
	}
	return in, nil
}

// moveFocus moves to the next editable field in direction dir, wrapping.
func (f *FormModal) moveFocus(dir int) {
	n := len(f.fields)
	next := f.focus
	for range n {
		next = (next + dir + n) % n
		if !f.fields[next].locked {
			break
		}
	}

	for i := range f.fields {
		if i == next {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	f.focus = next
}

func (f *FormModal) lastEditable() int {
	for i := len(f.fields) - 1; i >= 0; i-- {
		if !f.fields[i].locked {
			return i
		}
	}
	return -1
}

// View renders the modal.
func (f *FormModal) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render(f.title))
	b.WriteString("\n\n")
	for i, field := range f.fields {
		label := Styles.Label.Render(field.label)
		if i == f.focus {
			label = Styles.Selected.Inherit(Styles.Label).Render(field.label)
		}
		value := field.input.View()
		if field.locked {
			value = Styles.Locked.Render(field.input.Value() + " (bloqueado)")
		}
		b.WriteString(label + value + "\n")
	}
	if f.err != "" {
		b.WriteString("\n" + Styles.Error.Render(f.err) + "\n")
	}
	b.WriteString("\n" + Styles.Help.Render("Tab: próximo campo  Enter/Ctrl+S: salvar  Esc: cancelar"))
	return Styles.Box.Render(b.String())
}
