package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/cds"
	"github.com/moorhen-labs/hexfeatures/internal/scheduler"
	"github.com/moorhen-labs/hexfeatures/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download land cover archives from the climate data store",
	Long:  "Submits one retrieval per requested year, runs a bounded number of downloads concurrently, and records the resulting archives in the manifest store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		years, _ := cmd.Flags().GetIntSlice("years")
		extract, _ := cmd.Flags().GetBool("extract")
		useFTP, _ := cmd.Flags().GetBool("ftp")
		archiveDir, _ := cmd.Flags().GetString("archive-dir")
		if archiveDir == "" {
			archiveDir = cfg.CDS.ArchiveDir
		}

		years, err := cds.CheckYears(years)
		if err != nil {
			return eris.Wrap(err, "fetch")
		}
		if err := os.MkdirAll(archiveDir, 0o755); err != nil {
			return eris.Wrap(err, "create archive dir")
		}

		client, err := buildClient(useFTP)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, cds.LandcoverDataset)
		if err != nil {
			return err
		}

		queries := cds.BuildLandcoverQueries(years, archiveDir)
		artifacts, err := scheduler.Schedule(ctx, client, queries,
			func(ctx context.Context, res scheduler.Result) ([]store.Artifact, error) {
				return processArchive(run.ID, res, extract)
			},
			scheduler.Options{
				Dataset:       cds.LandcoverDataset,
				MaxConcurrent: cfg.CDS.MaxConcurrent,
			},
		)
		if err != nil {
			if ferr := st.FinishRun(ctx, run.ID, store.RunStatusFailed); ferr != nil {
				zap.L().Error("failed to mark run failed", zap.Error(ferr))
			}
			return eris.Wrap(err, "fetch")
		}

		var flat []store.Artifact
		for _, group := range artifacts {
			flat = append(flat, group...)
		}
		if _, err := st.RecordArtifacts(ctx, flat); err != nil {
			return eris.Wrap(err, "record artifacts")
		}
		if err := st.FinishRun(ctx, run.ID, store.RunStatusComplete); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Retrieved %d archives into %s (run %s)\n", len(queries), archiveDir, run.ID)
		return nil
	},
}

// buildClient selects the HTTP API client or the anonymous FTP mirror.
func buildClient(useFTP bool) (cds.Client, error) {
	if useFTP {
		return cds.NewFTPClient(cfg.CDS.FTPMirror, 0)
	}
	return cds.NewHTTPClient(cds.Options{
		BaseURL: cfg.CDS.BaseURL,
		Key:     cfg.CDS.Key,
	})
}

// processArchive turns one downloaded archive into manifest artifacts,
// optionally extracting the netCDF payload next to it.
func processArchive(runID string, res scheduler.Result, extract bool) ([]store.Artifact, error) {
	artifacts := []store.Artifact{{
		RunID:   runID,
		Path:    res.OutPath,
		Kind:    "archive",
		Year:    res.Request.Year,
		Version: res.Request.Version,
	}}

	if extract {
		ncPath, err := cds.ExtractSingleNetCDF(res.OutPath)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, store.Artifact{
			RunID:   runID,
			Path:    ncPath,
			Kind:    "netcdf",
			Year:    res.Request.Year,
			Version: res.Request.Version,
		})
	}
	return artifacts, nil
}

func init() {
	fetchCmd.Flags().IntSlice("years", nil, "years to retrieve (e.g. --years 2000,2001,2002)")
	fetchCmd.Flags().Bool("extract", false, "extract the netCDF payload from each archive")
	fetchCmd.Flags().Bool("ftp", false, "download from the anonymous FTP mirror instead of the API")
	fetchCmd.Flags().String("archive-dir", "", "directory for downloaded archives (default from config)")
	_ = fetchCmd.MarkFlagRequired("years")
	rootCmd.AddCommand(fetchCmd)
}
