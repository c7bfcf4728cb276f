package cli

import (
	"log"

	"github.com/spf13/cobra"

	"testmaker-service/internal/config"
	"testmaker-service/internal/infra/postgres"
	"testmaker-service/internal/seed"
)

// NewSeedCmd loads demo users and sample quizzes into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users and sample quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}

			db := openBunDB(cfg.Postgres.URL)
			defer db.Close()

			if err := seed.Seed(ctx, postgres.NewStore(db)); err != nil {
				return err
			}
			log.Printf("demo data seeded")
			return nil
		},
	}
}
