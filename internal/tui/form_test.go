package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/censo-escolar/client"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func setField(f *FormModal, key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
			return
		}
	}
	panic("unknown field " + key)
}

var saoPaulo = client.UF{ID: 35, Acronym: "SP", Name: "São Paulo", Region: client.Region{ID: 3, Name: "Sudeste"}}

func TestAddFormPrefillsState(t *testing.T) {
	f := NewAddForm(saoPaulo)
	assert.Equal(t, keyID, f.Focused())

	in, err := f.Input()
	require.NoError(t, err)
	assert.Nil(t, in.ID)
	assert.Nil(t, in.Year)
	assert.Equal(t, 35, *in.UFCode)
	assert.Equal(t, "São Paulo", *in.UFName)
	assert.Equal(t, "SP", *in.UFAcronym)
	assert.Equal(t, 0, *in.InfantEnrollment)
	assert.Equal(t, 0, *in.ElementaryEnrollment)
}

func TestAddFormTypingAndSubmit(t *testing.T) {
	f := NewAddForm(saoPaulo)
	f, _ = f.Update(keyMsg("35000001"))
	f, _ = f.Update(keyMsg("tab"))
	assert.Equal(t, keyYear, f.Focused())
	f, _ = f.Update(keyMsg("2024"))
	f, _ = f.Update(keyMsg("tab"))
	f, _ = f.Update(keyMsg("EE Teste"))
	f, _ = f.Update(keyMsg("down"))
	f, _ = f.Update(keyMsg("Campinas"))

	_, cmd := f.Update(keyMsg("ctrl+s"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(submitFormMsg)
	require.True(t, ok)

	assert.False(t, msg.editing)
	assert.Equal(t, int64(35000001), *msg.input.ID)
	assert.Equal(t, 2024, *msg.input.Year)
	assert.Equal(t, "EE Teste", *msg.input.Name)
	assert.Equal(t, "Campinas", *msg.input.Municipality)
}

func TestFormRejectsNonInteger(t *testing.T) {
	f := NewAddForm(saoPaulo)
	setField(f, keyYear, "dois mil")

	_, cmd := f.Update(keyMsg("ctrl+s"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Ano do Censo: deve ser um número inteiro", f.err)
	assert.Contains(t, f.View(), "Ano do Censo: deve ser um número inteiro")
}

func TestFormBlankEnrollmentIsZero(t *testing.T) {
	f := NewAddForm(saoPaulo)
	setField(f, keyInfant, "")
	setField(f, keyElementary, " 12 ")

	in, err := f.Input()
	require.NoError(t, err)
	assert.Equal(t, 0, *in.InfantEnrollment)
	assert.Equal(t, 12, *in.ElementaryEnrollment)
}

func TestEditFormLocksKey(t *testing.T) {
	inf := 7
	inst := client.Institution{
		ID: 35000001, Year: 2023, Name: "EE Antiga", Municipality: "Santos",
		UFCode: 35, UFName: "São Paulo", UFAcronym: "SP", InfantEnrollment: &inf,
	}
	f := NewEditForm(inst)
	assert.Equal(t, keyName, f.Focused())

	f, _ = f.Update(keyMsg("shift+tab"))
	assert.Equal(t, keyElementary, f.Focused(), "focus wraps past the locked key fields")
	f, _ = f.Update(keyMsg("tab"))
	assert.Equal(t, keyName, f.Focused())

	in, err := f.Input()
	require.NoError(t, err)
	assert.Equal(t, 7, *in.InfantEnrollment)
	assert.Equal(t, 0, *in.ElementaryEnrollment)
	assert.Contains(t, f.View(), "(bloqueado)")

	setField(f, keyName, "EE Nova")
	_, cmd := f.Update(keyMsg("ctrl+s"))
	require.NotNil(t, cmd)
	msg := cmd().(submitFormMsg)
	assert.True(t, msg.editing)
	assert.Equal(t, int64(35000001), msg.id)
	assert.Equal(t, 2023, msg.year)
	assert.Equal(t, "EE Nova", *msg.input.Name)
}

func TestFormEnterAdvancesThenSubmits(t *testing.T) {
	f := NewAddForm(saoPaulo)
	for range len(f.fields) - 1 {
		var cmd tea.Cmd
		f, cmd = f.Update(keyMsg("enter"))
		assert.Nil(t, cmd)
	}
	assert.Equal(t, keyElementary, f.Focused())

	_, cmd := f.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.IsType(t, submitFormMsg{}, cmd())
}

func TestFormEscDismisses(t *testing.T) {
	f := NewAddForm(saoPaulo)
	_, cmd := f.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, dismissMsg{}, cmd())
}

func TestConfirmModal(t *testing.T) {
	inst := client.Institution{ID: 9, Year: 2024}
	c := NewDeleteConfirm(inst)
	assert.Contains(t, c.View(), "Nome não disponível")
	assert.Contains(t, c.View(), "Tem certeza que deseja apagar esta instituição?")

	_, cmd := c.Update(keyMsg("x"))
	assert.Nil(t, cmd)

	_, cmd = c.Update(keyMsg("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, dismissMsg{}, cmd())

	_, cmd = c.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, confirmDeleteMsg{id: 9, year: 2024}, cmd())
}
