package watch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agentuity/cli/internal/diag"
)

// DevServer serves the build output over HTTP with a live-reload websocket
// endpoint and rebuilds on source changes.
type DevServer struct {
	RootDir string
	OutDir  string // build output directory served as static files
	Port    int
	Rebuild func(ctx context.Context) error
	Logger  *zap.Logger

	reload *ReloadServer
}

// Run builds once, then serves and watches until ctx is cancelled.
func (s *DevServer) Run(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	s.reload = NewReloadServer(s.Logger)
	defer s.reload.Close()

	if err := s.Rebuild(ctx); err != nil {
		// The first build must succeed before serving anything.
		return err
	}

	watcher, err := NewFileWatcher(s.Logger, func(files []string) error {
		s.reload.NotifyBuilding(files)
		start := time.Now()
		if err := s.Rebuild(ctx); err != nil {
			s.reload.NotifyErrors(buildErrors(err))
			return err
		}
		s.reload.NotifySuccess(time.Since(start))
		return nil
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(s.RootDir); err != nil {
		return err
	}
	defer watcher.Stop()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/__reload", s.reload.HandleWebSocket)
	r.Handle("/*", http.FileServer(http.Dir(s.OutDir)))

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("dev server listening",
			zap.String("addr", srv.Addr),
			zap.String("serving", s.OutDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildErrors unwraps pipeline errors into reportable diagnostics.
func buildErrors(err error) []diag.BuildError {
	var list *diag.List
	if errors.As(err, &list) {
		return list.Errors
	}
	var be diag.BuildError
	if errors.As(err, &be) {
		return []diag.BuildError{be}
	}
	return []diag.BuildError{
		diag.New("build", diag.CodeBundler, err.Error(), diag.Location{}),
	}
}
