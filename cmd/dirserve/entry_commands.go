package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dirserve/internal/ipc"
)

func newEntryCommands(ctx *commandContext) []*cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Read the value stored at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				value, err := client.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get %s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Store a value at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stored, err := client.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("set %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], stored)
				return nil
			})
		},
	}

	delCmd := &cobra.Command{
		Use:   "del <path>",
		Short: "Remove the entry at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				removed, err := client.Del(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("del %s: %w", args[0], err)
				}
				if removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "No entry at %s\n", args[0])
				}
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List entries under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := "/"
			if len(args) == 1 {
				prefix = args[0]
			}
			return ctx.withClient(func(client *ipc.Client) error {
				entries, err := client.List(cmd.Context(), prefix)
				if err != nil {
					return fmt.Errorf("list %s: %w", prefix, err)
				}
				stdout := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(stdout, "No entries under %s\n", prefix)
					return nil
				}
				rows := make([][2]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, [2]string{entry.Path, entry.Value})
				}
				fmt.Fprint(stdout, renderTable("Path", "Value", rows))
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	return []*cobra.Command{getCmd, setCmd, delCmd, listCmd}
}
