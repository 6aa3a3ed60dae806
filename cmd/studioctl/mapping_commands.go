package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studiorouter/internal/api"
)

func newMappingsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var base bool

	cmd := &cobra.Command{
		Use:   "mappings <studio>",
		Short: "Show a studio's resolved mapping table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				resp, err := svc.EffectiveMappings(cmd.Context(), args[0], base)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Mappings) == 0 {
					fmt.Fprintf(out, "Studio %s has no mappings\n", resp.StudioID)
					return nil
				}
				fmt.Fprintln(out, renderMappingsTable(resp.Mappings))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&base, "base", false, "Show the configured mappings before routing")
	return cmd
}

func newRoutesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "routes <studio>",
		Short: "Show the routes contributed by the studio's active route sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				resp, err := svc.ActiveRoutes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Routes) == 0 {
					fmt.Fprintf(out, "Studio %s has no active routes\n", resp.StudioID)
					return nil
				}
				fmt.Fprintln(out, renderRoutesTable(resp.Routes))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newExplainCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "explain <studio>",
		Short: "Explain how a studio's route sets were resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				res, err := svc.Explain(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, res)
				}
				out := cmd.OutOrStdout()
				for _, line := range renderExplanation(res, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderExplanation(res *api.Resolution, colorize bool) []string {
	var lines []string
	lines = append(lines, renderSectionHeader("Route sets "+res.StudioID, colorize)...)
	for _, id := range res.Applied {
		lines = append(lines, renderStatusLine(id, statusOK, "applied", colorize))
	}
	for _, s := range res.Suppressed {
		lines = append(lines, renderStatusLine(s.RouteSetID, statusWarn,
			fmt.Sprintf("suppressed by %s in group %s", s.WinnerID, s.Group), colorize))
	}
	for _, id := range res.Inactive {
		lines = append(lines, renderStatusLine(id, statusInfo, "inactive", colorize))
	}
	for _, inert := range res.Inert {
		lines = append(lines, renderStatusLine(inert.RouteSetID, statusWarn,
			fmt.Sprintf("route %d ignored: missing layer", inert.Index), colorize))
	}
	for _, c := range res.Collisions {
		lines = append(lines, renderStatusLine(c.OutputLayer, statusError,
			"written by "+strings.Join(c.Sources, " then "), colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Effective mappings", colorize)...)
	if len(res.Mappings) == 0 {
		lines = append(lines, "  (none)")
	} else {
		lines = append(lines, renderMappingsTable(res.Mappings))
	}
	if len(res.Routes) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Active routes", colorize)...)
		lines = append(lines, renderRoutesTable(res.Routes))
	}
	return lines
}

func renderRoutesTable(routes []api.ActiveRoute) string {
	rows := make([][]string, 0, len(routes))
	for _, route := range routes {
		rows = append(rows, []string{
			route.SourceLayer,
			route.OutputLayer,
			describeRemapping(route.Remapping),
		})
	}
	return renderTable([]string{"Source", "Output", "Remapping"}, rows, nil)
}

// describeRemapping lists overridden attributes as key=value pairs.
func describeRemapping(r *api.Remapping) string {
	if r == nil {
		return "-"
	}
	var parts []string
	addString := func(key string, value *string) {
		if value != nil {
			parts = append(parts, key+"="+*value)
		}
	}
	addInt := func(key string, value *int) {
		if value != nil {
			parts = append(parts, key+"="+strconv.Itoa(*value))
		}
	}
	addString("device", r.Device)
	addString("deviceId", r.DeviceID)
	addString("lookahead", r.Lookahead)
	addInt("lookaheadDepth", r.LookaheadDepth)
	addInt("lookaheadMaxSearchDistance", r.LookaheadMaxSearchDistance)
	addString("layerName", r.LayerName)
	if r.Internal != nil {
		parts = append(parts, "internal="+strconv.FormatBool(*r.Internal))
	}
	keys := make([]string, 0, len(r.Options))
	for key := range r.Options {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("options.%s=%v", key, r.Options[key]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
