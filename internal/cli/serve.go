package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/internal/server"
	"github.com/menta2k/idphoto/pkg/pipeline"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the photo pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			job, err := cfg.Pipeline()
			if err != nil {
				return err
			}
			seg, err := cfg.NewSegmenter()
			if err != nil {
				return err
			}
			det, err := cfg.NewDetector()
			if err != nil {
				return err
			}

			handler := server.New(pipeline.New(seg, det, logger), job, logger, int64(cfg.Server.MaxUploadMB)<<20)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Server.Addr, "segmenter", cfg.Segmentation.Backend, "detector", cfg.Detection.Backend)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
