package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studiorouter/internal/api"
	"studiorouter/internal/studio"
)

func newGroupCommand(ctx *commandContext) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage exclusivity groups",
	}

	groupCmd.AddCommand(newGroupListCommand(ctx))
	groupCmd.AddCommand(newGroupSetCommand(ctx))
	groupCmd.AddCommand(newGroupRemoveCommand(ctx))

	return groupCmd
}

func newGroupListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <studio>",
		Short: "List a studio's exclusivity groups and their members",
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
				out := cmd.OutOrStdout()
				if len(st.ExclusivityGroups) == 0 {
					fmt.Fprintf(out, "Studio %s has no exclusivity groups\n", st.ID)
					return nil
				}
				rows := make([][]string, 0, len(st.ExclusivityGroups))
				for _, group := range st.ExclusivityGroups {
					var members, active []string
					for _, set := range st.RouteSets {
						if set.ExclusivityGroup != group.ID {
							continue
						}
						members = append(members, set.ID)
						if set.Active {
							active = append(active, set.ID)
						}
					}
					rows = append(rows, []string{
						group.ID,
						group.Name,
						orDash(strings.Join(members, ", ")),
						orDash(strings.Join(active, ", ")),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Group", "Name", "Route Sets", "Active"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
}

func newGroupSetCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "set <studio> <group>",
		Short: "Create or rename an exclusivity group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *studio.Store) error {
				if _, err := store.SetExclusivityGroup(cmd.Context(), args[0], args[1], name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %s saved in %s\n", args[1], args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the group ID)")
	return cmd
}

func newGroupRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <studio> <group>",
		Short: "Remove an exclusivity group no route set refers to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *studio.Store) error {
				if _, err := store.RemoveExclusivityGroup(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %s removed from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}
