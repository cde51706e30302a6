package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/hperssn/yofit/internal/catalog"
	"github.com/hperssn/yofit/internal/config"
	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/storage"
)

func newSeedCmd(envFile *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the class catalog into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if file != "" {
				cfg.CatalogFile = file
			}

			repo, err := storage.NewRepository(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open %s repository: %w", cfg.DBDriver, err)
			}
			defer repo.Close()

			return seedCatalog(cmd.Context(), repo, cfg.CatalogFile)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog TOML file (defaults to the built-in catalog)")

	return cmd
}

func seedCatalog(ctx context.Context, repo storage.ClassStore, path string) error {
	var (
		classes []domain.YogaClass
		err     error
	)
	if path != "" {
		classes, err = catalog.LoadFile(path)
	} else {
		classes, err = catalog.Default()
	}
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if err := catalog.Seed(ctx, repo, classes, time.Now().UTC()); err != nil {
		return err
	}
	log.Printf("seeded %d classes", len(classes))
	return nil
}
