package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nexus-hr/treasury/internal/routes"
)

func resyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Overwrite the fund balance from the latest stored bank transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.db == nil {
				return fmt.Errorf("resync needs DATABASE_URL; in-memory stores are empty")
			}

			components, err := routes.Build(rt.deps())
			if err != nil {
				return err
			}
			res, err := components.Syncer.Resync(cmd.Context())
			if err != nil {
				return err
			}
			if res.RefID == "" {
				rt.logger.Info("no bank transactions stored, nothing to resync")
				return nil
			}
			rt.logger.Info("fund balance resynchronized",
				slog.String("ref_id", res.RefID),
				slog.Int64("balance", res.Balance),
				slog.Bool("updated", res.Updated),
			)
			return nil
		},
	}
}
