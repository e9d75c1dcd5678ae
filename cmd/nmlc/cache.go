package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termfx/nml/internal/cache"
	"github.com/termfx/nml/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or maintain the reference cache database.",
	}
	cmd.AddCommand(newCacheCheckCmd())
	return cmd
}

func newCacheCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run SQLite's integrity self-check against the cache database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			configPath, err := fs.GetString("config")
			if err != nil {
				return err
			}
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}

			c, err := cache.Connect(settings.DBPath, settings.Debug)
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", settings.DBPath, err)
			}
			defer c.Close()

			if err := c.QuickCheck(); err != nil {
				return err
			}
			fmt.Println("cache ok")
			return nil
		},
	}
	cmd.Flags().String("config", "nml.toml", "Path to the project settings file")
	return cmd
}
