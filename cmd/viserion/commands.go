package main

import (
	"fmt"

	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Re-sync cached resources from the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *app) error {
				var reports []*syncer.Report
				if provider != "" {
					p, err := providers.Parse(provider)
					if err != nil {
						return err
					}
					reports = append(reports, a.orchestrator.SyncStored(cmd.Context(), p, syncer.TriggerManual))
				} else {
					reports = a.orchestrator.SyncAll(cmd.Context(), syncer.TriggerManual)
				}
				renderReports(cmd.OutOrStdout(), reports)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "only sync this provider (github or jira)")
	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "login <provider>",
		Short:     "Print the authorization URL that starts a login",
		Args:      cobra.ExactArgs(1),
		ValidArgs: providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := providers.Parse(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(func(a *app) error {
				u, err := a.popup.LoginURL(p)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
				return err
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "logout <provider>",
		Short:     "Forget the stored token and cached resources for a provider",
		Args:      cobra.ExactArgs(1),
		ValidArgs: providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := providers.Parse(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(func(a *app) error {
				if !a.popup.Logout(cmd.Context(), p) {
					return fmt.Errorf("clearing %s state failed", p)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "logged out of %s\n", p)
				return err
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login state and cached collection sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *app) error {
				renderStatus(cmd.OutOrStdout(), a.popup.Status(cmd.Context()))
				return nil
			})
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <provider> [entity]",
		Short: "Show cached resources",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, kinds, err := parseSelection(args)
			if err != nil {
				return err
			}
			return opts.withApp(func(a *app) error {
				for _, kind := range kinds {
					renderResources(cmd.OutOrStdout(), p, kind, a.popup.ResourcesFromStore(cmd.Context(), p, kind))
				}
				return nil
			})
		},
	}
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var accessToken string
	cmd := &cobra.Command{
		Use:   "fetch <provider> <entity>",
		Short: "Fetch resources live from the proxy without caching them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, kinds, err := parseSelection(args)
			if err != nil {
				return err
			}
			return opts.withApp(func(a *app) error {
				tok := accessToken
				if tok == "" {
					stored, ok := a.popup.AccessTokenFromStore(cmd.Context(), p)
					if !ok {
						return fmt.Errorf("not logged in to %s, run: viserion login %s", p, p)
					}
					tok = stored
				}
				items, ok := a.popup.FetchResourcesLive(cmd.Context(), p, kinds[0], tok)
				if !ok {
					return fmt.Errorf("fetching %s %s failed", p, kinds[0])
				}
				renderResources(cmd.OutOrStdout(), p, kinds[0], items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accessToken, "token", "", "access token to use instead of the stored one")
	return cmd
}

// parseSelection resolves "<provider> [entity]" to the entity kinds to act on.
func parseSelection(args []string) (providers.Provider, []providers.EntityKind, error) {
	p, err := providers.Parse(args[0])
	if err != nil {
		return "", nil, err
	}
	if len(args) == 1 {
		spec := providers.MustLookup(p)
		kinds := make([]providers.EntityKind, 0, len(spec.Entities))
		for _, e := range spec.Entities {
			kinds = append(kinds, e.Kind)
		}
		return p, kinds, nil
	}

	kind := providers.EntityKind(args[1])
	if _, ok := providers.EntityFor(p, kind); !ok {
		return "", nil, fmt.Errorf("%s has no %q collection", p, kind)
	}
	return p, []providers.EntityKind{kind}, nil
}

func providerNames() []string {
	all := providers.All()
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, string(p))
	}
	return names
}
