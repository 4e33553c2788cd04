package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema PostgreSQL",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.Migrator.Up(rt.Config.DB.ConnectionString()); err != nil {
				return err
			}
			rt.Log.Info().Msg("migraciones aplicadas")
			_, err := fmt.Fprintln(rt.out(), "ok")
			return err
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revierte las últimas migraciones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps debe ser mayor que 0")
			}
			if err := rt.Migrator.Down(rt.Config.DB.ConnectionString(), steps); err != nil {
				return err
			}
			rt.Log.Info().Int("steps", steps).Msg("migraciones revertidas")
			_, err := fmt.Fprintln(rt.out(), "ok")
			return err
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "número de migraciones a revertir")

	status := &cobra.Command{
		Use:   "status",
		Short: "Muestra la versión aplicada",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := rt.Migrator.Status(rt.Config.DB.ConnectionString())
			if err != nil {
				return err
			}
			return rt.printJSON(map[string]any{"version": version, "dirty": dirty})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
