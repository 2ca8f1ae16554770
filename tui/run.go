package tui

import (
	"context"
	"errors"

	"houseplants/models"
	"houseplants/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Run shows the search screen until the user quits or ctx is cancelled.
// The terminal keeps its history directly under the store's history key,
// so other terminals on the same store see each other's searches.
func Run(ctx context.Context, store storage.Store, opts Options) error {
	m := New(models.NewHistoryService(store), store, opts)
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	m.Attach(p.Send)

	logger.Debug("Starting terminal search")
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return serr.Wrap(err, "terminal search exited")
	}
	return nil
}
