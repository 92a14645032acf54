package main

import (
	"github.com/jrsteele09/viserion/internal/config"
	"github.com/jrsteele09/viserion/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "viserion",
		Short: "Sign in to GitHub and Jira and keep their resources cached locally",
		Long: `viserion watches for the GitHub and Jira OAuth redirects, exchanges the
authorization code through the proxy API, and keeps repositories, followers,
projects and dashboards cached in a local store for the extension popup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			logging.Setup(cfg.GetEnv(), cfg.GetLogLevel())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newSyncCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newShowCmd(opts),
		newFetchCmd(opts),
	)
	return cmd
}

// withApp opens the store for the duration of fn.
func (o *rootOptions) withApp(fn func(a *app) error) error {
	a, err := newApp(o.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
