package main

import (
	"github.com/spf13/cobra"

	"merchanthaus.com/web/internal/config"
)

// cli carries the configuration loaded before any subcommand runs.
type cli struct {
	envFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "mhctl",
		Short:         "MerchantHaus site operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.WithEnvFile(c.envFile))
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file with local overrides")

	root.AddCommand(
		c.newLeadsCmd(),
		c.newApplicationsCmd(),
		c.newNavCmd(),
		c.newContentCmd(),
	)
	return root
}
