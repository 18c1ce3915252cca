package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macpaste/macpaste/internal/ipc"
)

var statusOpts struct {
	json bool
}

func visibilityCmd(use, short string, call func(*ipc.Client) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			visible, err := call(ipc.NewClient())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "visible: %v\n", visible)
			return nil
		},
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and panel status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := ipc.NewClient().GetStatus()
		if err != nil {
			return err
		}
		if statusOpts.json {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		formatStatus(cmd.OutOrStdout(), status, stdoutIsTerminal())
		return nil
	},
}

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List displays as the daemon sees them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().GetMonitors()
		if err != nil {
			return err
		}
		formatMonitors(cmd.OutOrStdout(), data.Monitors)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the daemon to reload its configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ipc.NewClient().Reload(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "config reloaded")
		return nil
	},
}

var frontmostCmd = &cobra.Command{
	Use:   "frontmost",
	Short: "Print the app that was active before the panel was shown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := ipc.NewClient().FrontmostApp()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(
		visibilityCmd("show", "Show the panel", (*ipc.Client).Show),
		visibilityCmd("hide", "Hide the panel", (*ipc.Client).Hide),
		visibilityCmd("toggle", "Toggle the panel and print the new state", (*ipc.Client).Toggle),
		statusCmd,
		monitorsCmd,
		reloadCmd,
		frontmostCmd,
	)
	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false, "Print raw JSON")
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
