package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexus-hr/treasury/internal/infra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.db == nil {
				return fmt.Errorf("migrate needs DATABASE_URL")
			}
			if err := infra.Migrate(cmd.Context(), rt.db); err != nil {
				return err
			}
			rt.logger.Info("schema applied")
			return nil
		},
	}
}
