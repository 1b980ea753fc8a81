package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dirserve/internal/daemonctl"
	"dirserve/internal/lifecycle"
	"dirserve/internal/probe"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the dirserve daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				if result.PID > 0 {
					fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
				} else {
					fmt.Fprintln(stdout, "Daemon started")
				}
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the dirserve daemon (terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			err := daemonctl.Stop(cmd.Context(), ctx.configValue(), nil)
			if err != nil {
				if errors.Is(err, lifecycle.ErrStopTimeout) {
					return fmt.Errorf("daemon did not exit within the polling budget: %w", err)
				}
				if errors.Is(err, probe.ErrProbe) {
					return fmt.Errorf("could not determine daemon state: %w", err)
				}
				return err
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the dirserve daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				cmd.Context(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
				nil,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	var statusScope string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and directory status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			snapshot, err := daemonctl.StatusSnapshot(cmd.Context(), ctx.socketPath(), cfg, statusScope)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			running, _ := snapshot["running"].(bool)
			fmt.Fprintln(stdout, renderSectionHeader("Daemon", colorize))
			detail := ""
			if !running {
				detail = "run `dirserve start`"
			}
			fmt.Fprintln(stdout, renderRunningLine(running, detail, colorize))

			rows := buildStatusRows(snapshot)
			if len(rows) > 0 {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderSectionHeader("Details", colorize))
				fmt.Fprint(stdout, renderTable("Field", "Value", rows))
				fmt.Fprintln(stdout)
			}
			return nil
		},
	}
	statusCmd.Flags().StringVar(&statusScope, "scope", "all", "Status scope: daemon, directory, or all")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func buildStatusRows(snapshot map[string]any) [][2]string {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		if key == "running" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, key := range keys {
		value := snapshot[key]
		var rendered string
		switch v := value.(type) {
		case bool:
			rendered = yesNo(v)
		case float64:
			rendered = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			rendered = fmt.Sprintf("%v", v)
		}
		rows = append(rows, [2]string{key, rendered})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
