package main

import (
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/api"
	"github.com/moorhen-labs/hexfeatures/internal/edgefeature"
	"github.com/moorhen-labs/hexfeatures/internal/hexgrid"
	"github.com/moorhen-labs/hexfeatures/internal/raster"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve edge features and the fetch manifest over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cellsPath, _ := cmd.Flags().GetString("cells")
		cells, err := readCellList(cellsPath)
		if err != nil {
			return err
		}

		opts := api.Options{AllowedOrigins: cfg.Server.AllowedOrigins}

		opts.Distance, err = edgefeature.NewGeodeticCache(cells, hexgrid.NewH3(), cfg.Features.Ellipsoid)
		if err != nil {
			return err
		}

		// The cost cache is optional; without a cost surface only distance
		// queries are served.
		if cfg.Features.CostSurface != "" {
			surface, transform, err := raster.ReadASCIIGrid(cfg.Features.CostSurface)
			if err != nil {
				return err
			}
			opts.Cost, err = edgefeature.NewLeastCostCache(
				cells, hexgrid.NewH3(), surface, transform,
				cfg.Features.Resolution, cfg.Features.KNeighbours)
			if err != nil {
				return err
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		opts.Store = st

		_, handler := api.NewServer(opts)

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srv := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.String("addr", addr),
			zap.Int("cells", len(cells)),
			zap.Bool("cost_enabled", opts.Cost != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().String("cells", "", "file with one hex cell name per line")
	_ = serveCmd.MarkFlagRequired("cells")
	rootCmd.AddCommand(serveCmd)
}
