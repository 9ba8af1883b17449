package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/leeforge/essentials/plugin"
	"github.com/spf13/cobra"
)

// errOperationFailed makes the process exit non-zero after the feedback
// explaining the failure was printed.
var errOperationFailed = errors.New("operation failed")

func newInstallCmd(opts *rootOptions) *cobra.Command {
	var params map[string]string
	cmd := &cobra.Command{
		Use:   "install <plugin-id>",
		Short: "Install a plugin and the plugins it depends on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			fb := plugin.NewFeedback()
			ok := a.machine.InstallWithDependencies(cmd.Context(), args[0], a.plugins, toParameters(params), fb)

			// user input is not persisted, so parameters given up front are
			// applied within this run; there is no standalone parameters
			// command outside "serve"
			if d, found := a.plugins.Get(args[0]); ok && found && len(params) > 0 && d.State == plugin.StateAwaitingUserInput {
				ok = a.machine.InstallWithParameters(cmd.Context(), d.ID, a.plugins, toParameters(params), fb)
			}
			return report(cmd.OutOrStdout(), ok, fb)
		},
	}
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Install parameter as key=value (repeatable)")
	return cmd
}

func newRestartCmd(opts *rootOptions) *cobra.Command {
	var rebuild bool
	var params map[string]string
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Resume installations after the application was rebuilt and restarted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if rebuild {
				if _, err := a.service.Rebuild(cmd.Context()); err != nil {
					return err
				}
			}
			fb := plugin.NewFeedback()
			a.machine.SignalRestart(cmd.Context(), a.plugins, toParameters(params), fb)
			return report(cmd.OutOrStdout(), true, fb)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Publish persisted states to the deployed store first")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Parameters for plugins installed by the cascade")
	return cmd
}

func newRebuildCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Publish persisted states to the deployed store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.service.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d install states\n", n)
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plugins and their install states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATE")
			for _, d := range a.plugins.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.DisplayName(), d.State)
			}
			return tw.Flush()
		},
	}
}

func toParameters(raw map[string]string) plugin.Parameters {
	if len(raw) == 0 {
		return nil
	}
	params := make(plugin.Parameters, len(raw))
	for k, v := range raw {
		params[k] = v
	}
	return params
}

func report(w io.Writer, ok bool, fb *plugin.Feedback) error {
	for _, m := range fb.Messages() {
		fmt.Fprintf(w, "[%s] %s\n", m.Severity, m.Text)
	}
	if !ok {
		return errOperationFailed
	}
	return nil
}
