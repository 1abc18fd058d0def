package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alorle/censo-escolar/client"
)

// confirmDeleteMsg is sent when a deletion is confirmed.
type confirmDeleteMsg struct {
	id   int64
	year int
}

// ConfirmModal asks before deleting a record. y or Enter confirms; n or Esc
// cancels.
type ConfirmModal struct {
	inst client.Institution
}

// NewDeleteConfirm creates a confirmation for deleting inst.
func NewDeleteConfirm(inst client.Institution) *ConfirmModal {
	return &ConfirmModal{inst: inst}
}

// Update handles the confirmation keys.
func (m *ConfirmModal) Update(msg tea.Msg) (*ConfirmModal, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "n":
		return m, func() tea.Msg { return dismissMsg{} }
	case "enter", "y":
		id, year := m.inst.ID, m.inst.Year
		return m, func() tea.Msg { return confirmDeleteMsg{id: id, year: year} }
	}
	return m, nil
}

// View renders the modal.
func (m *ConfirmModal) View() string {
	content := Styles.Title.Render("Tem certeza que deseja apagar esta instituição?") + "\n\n"
	content += fmt.Sprintf("%s (ID: %d, ano %d)", displayName(m.inst), m.inst.ID, m.inst.Year)
	content += "\n\n" + Styles.Help.Render("y/Enter: apagar  n/Esc: cancelar")
	return Styles.BoxWarn.Render(content)
}

func displayName(inst client.Institution) string {
	if inst.Name == "" {
		return "Nome não disponível"
	}
	return inst.Name
}
