package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Serve exposes the output directory over HTTP until ctx is done.
// Useful for eyeballing a report generated on a remote machine.
func Serve(ctx context.Context, addr, dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/"+ReportFileName, http.StatusFound)
	})
	r.Handle("/*", http.FileServer(http.Dir(dir)))

	srv := &http.Server{Addr: addr, Handler: r}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("report: serving", "addr", addr, "dir", dir)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
