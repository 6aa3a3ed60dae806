package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studiorouter/internal/api"
)

func newRouteSetCommand(ctx *commandContext) *cobra.Command {
	routeSetCmd := &cobra.Command{
		Use:     "routeset",
		Aliases: []string{"rs"},
		Short:   "List and switch route sets",
	}

	routeSetCmd.AddCommand(newRouteSetListCommand(ctx))
	routeSetCmd.AddCommand(newRouteSetSwitchCommand(ctx, true))
	routeSetCmd.AddCommand(newRouteSetSwitchCommand(ctx, false))

	return routeSetCmd
}

func newRouteSetListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list <studio>",
		Short: "List a studio's route sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				st, err := svc.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if st == nil {
					return fmt.Errorf("studio %s not found", args[0])
				}
				if jsonOutput {
					return writeJSON(cmd, st.RouteSets)
				}
				out := cmd.OutOrStdout()
				if len(st.RouteSets) == 0 {
					fmt.Fprintf(out, "Studio %s has no route sets\n", st.ID)
					return nil
				}
				fmt.Fprintln(out, renderRouteSetsTable(st.RouteSets))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRouteSetSwitchCommand(ctx *commandContext, active bool) *cobra.Command {
	var force bool

	use, short := "activate", "Activate a route set, deactivating the rest of its group"
	if !active {
		use, short = "deactivate", "Deactivate a route set"
	}

	cmd := &cobra.Command{
		Use:   use + " <studio> <route-set>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				req := api.RouteSetActivationRequest{Active: active, Force: force}
				st, err := svc.SetRouteSetActive(cmd.Context(), args[0], args[1], req)
				if err != nil {
					return err
				}
				state := "inactive"
				if active {
					state = "active"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Route set %s is %s in %s (mappings %s)\n",
					args[1], state, st.ID, shortHash(st.MappingsHash))
				return nil
			})
		},
	}

	if !active {
		cmd.Flags().BoolVar(&force, "force", false, "Deactivate even if the route set is activate-only")
	}
	return cmd
}
