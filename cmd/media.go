package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aadi-novice/guardian/internal/media"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/server"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/aadi-novice/guardian/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MediaView retrieves one protected material and serves it to the system
// viewer. In fetch mode the bytes are published on a loopback address that is
// revoked when the command exits; in embed mode the signed URL is handed out
// with the access credential attached as a query parameter.
func (r *Runner) MediaView(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	mode, err := media.ParseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	material, err := r.resolveMaterial(ctx, cmd.Int("id"), cmd.Int("lesson"))
	if err != nil {
		return err
	}

	var publisher media.Publisher
	if mode == media.ModeFetch {
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
		publisher = srv.Registry()
	}

	loader := media.NewLoader(media.LoaderOpts{
		Gateway:   r.client,
		Publisher: publisher,
		Timeout:   r.config.Media.Timeout(),
		CacheDir:  r.config.Media.CacheDir,
		Logger:    r.logger,
	})
	defer loader.Release()

	handle := loader.Load(ctx, media.Request{Material: *material, Mode: mode})
	if handle.Phase() != media.PhaseReady {
		return fmt.Errorf("%w: %s", shared.ErrMediaFetch, handle.Reason())
	}

	res := handle.Resource()
	r.writePlain("✓ %s ready (%s)\n", material.Title, res.Kind())
	if wm := handle.Watermark(); wm != "" {
		r.writePlain("  Watermark: %s\n", wm)
	}
	r.writePlain("  Address: %s\n", res.URL())

	if err := shared.OpenBrowser(res.URL()); err != nil {
		r.logger.Warnf("failed to open browser automatically: %v", err)
	}

	r.writePlain("\nPress Enter to close the viewer and revoke the address...\n")
	bufio.NewReader(os.Stdin).ReadString('\n')

	return nil
}

// resolveMaterial finds the material record for an ID, preferring the local
// catalog cache and falling back to the lesson listing when one is given.
func (r *Runner) resolveMaterial(ctx context.Context, materialID, lessonID int) (*models.Material, error) {
	if r.catalog != nil {
		if material, err := r.catalog.Material(materialID); err == nil {
			return material, nil
		}
	}

	if lessonID <= 0 {
		return nil, fmt.Errorf("%w: material %d is not cached, pass --lesson to resolve it", shared.ErrMaterialNotFound, materialID)
	}

	materials, err := r.client.Materials(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if r.catalog != nil {
		if err := r.catalog.ReplaceMaterials(lessonID, materials); err != nil {
			r.logger.Warnf("failed to refresh material cache: %v", err)
		}
	}

	for i := range materials {
		if materials[i].ID == materialID {
			return &materials[i], nil
		}
	}

	return nil, fmt.Errorf("%w: material %d not found in lesson %d", shared.ErrMaterialNotFound, materialID, lessonID)
}

// MediaPrefetch downloads every material of a course for offline study and
// writes a manifest describing the result.
func (r *Runner) MediaPrefetch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	courseID := cmd.Int("course")
	opts := tasks.PrefetchOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  float64(cmd.Int("rate")),
	}

	var cache tasks.CatalogCacher
	if r.catalog != nil {
		cache = r.catalog
	}
	engine := tasks.NewPrefetchEngine(r.client, cache, r.logger)

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			if update.Total > 0 {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Prefetch(ctx, prog, courseID, opts)
	close(prog)
	<-done

	if err != nil {
		return fmt.Errorf("prefetch failed: %w", err)
	}

	r.writePlainln("✓ Prefetched %d of %d materials", result.Downloaded, result.TotalMaterials)
	if result.Failed > 0 {
		r.writePlain("  Failed: %d\n", result.Failed)
	}
	r.writePlain("  Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("  Manifest: %s\n", result.ManifestPath)
	}

	return nil
}
