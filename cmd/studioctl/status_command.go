package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether studiod is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := newDaemonClient(cfg)
			if err != nil {
				return err
			}
			status, statusErr := client.Status(cmd.Context())
			if jsonOutput {
				if statusErr != nil {
					return statusErr
				}
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("studiod", colorize) {
				fmt.Fprintln(out, line)
			}
			if statusErr != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not reachable", colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, cfg.DatabasePath(), colorize))
				return nil
			}
			state, kind := "stopped", statusWarn
			if status.Running {
				state, kind = "running", statusOK
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", kind, state, colorize))
			fmt.Fprintln(out, renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Listening", statusInfo, status.Bind, colorize))
			fmt.Fprintln(out, renderStatusLine("Started", statusInfo, orDash(status.StartedAt), colorize))
			fmt.Fprintln(out, renderStatusLine("Studios", statusInfo, strconv.Itoa(status.Studios), colorize))
			fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
