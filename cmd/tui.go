package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aadi-novice/guardian/internal/guard"
	"github.com/aadi-novice/guardian/internal/media"
	"github.com/aadi-novice/guardian/internal/server"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/aadi-novice/guardian/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive course browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/guardian-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	srv := server.NewMediaServer(r.config.Server, r.logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start media server: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warnf("error shutting down media server: %v", err)
		}
	}()

	loader := media.NewLoader(media.LoaderOpts{
		Gateway:   r.client,
		Publisher: srv.Registry(),
		Timeout:   r.config.Media.Timeout(),
		CacheDir:  r.config.Media.CacheDir,
		Logger:    r.logger,
	})
	defer loader.Release()

	identity, _ := r.session.Identity()
	model := ui.NewModel(ctx, r.client, loader, guard.NewRegistry(), identity)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
