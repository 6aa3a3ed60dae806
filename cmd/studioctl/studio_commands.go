package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studiorouter/internal/api"
	"studiorouter/internal/fileutil"
	"studiorouter/internal/studio"
	"studiorouter/internal/studiodef"
)

func newStudioCommand(ctx *commandContext) *cobra.Command {
	studioCmd := &cobra.Command{
		Use:   "studio",
		Short: "Manage stored studios",
	}

	studioCmd.AddCommand(newStudioListCommand(ctx))
	studioCmd.AddCommand(newStudioShowCommand(ctx))
	studioCmd.AddCommand(newStudioImportCommand(ctx))
	studioCmd.AddCommand(newStudioExportCommand(ctx))
	studioCmd.AddCommand(newStudioDeleteCommand(ctx))
	studioCmd.AddCommand(newStudioValidateCommand())

	return studioCmd
}

func newStudioListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored studios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				studios, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					if studios == nil {
						studios = []api.StudioSummary{}
					}
					return writeJSON(cmd, api.StudioListResponse{Studios: studios})
				}
				out := cmd.OutOrStdout()
				if len(studios) == 0 {
					fmt.Fprintln(out, "No studios stored")
					return nil
				}
				rows := make([][]string, 0, len(studios))
				for _, st := range studios {
					rows = append(rows, []string{
						st.ID,
						st.Name,
						strconv.Itoa(st.MappingCount),
						strconv.Itoa(st.RouteSetCount),
						orDash(strings.Join(st.ActiveRouteSets, ", ")),
						shortHash(st.MappingsHash),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Mappings", "Route Sets", "Active", "Hash"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStudioShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <studio>",
		Short: "Show a studio's configuration",
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
					return writeJSON(cmd, api.StudioResponse{Studio: *st})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Studio:     %s (%s)\n", st.ID, st.Name)
				fmt.Fprintf(out, "Blueprint:  %s\n", orDash(st.BlueprintID))
				fmt.Fprintf(out, "Mappings:   %s\n", st.MappingsHash)
				fmt.Fprintf(out, "Config:     %s\n", st.RundownVersionHash)
				fmt.Fprintf(out, "Updated:    %s\n", orDash(st.UpdatedAt))
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderMappingsTable(st.Mappings))
				fmt.Fprintln(out, renderRouteSetsTable(st.RouteSets))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStudioImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import [path...]",
		Short: "Import studio definition files or directories",
		Long: "Import studio definitions, replacing stored studios with the same ID.\n" +
			"Without arguments the configured definitions directory is imported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				paths = []string{cfg.Studios.DefinitionsDir}
			}

			defs, loadErr := loadDefinitions(paths)
			out := cmd.OutOrStdout()
			var result api.ImportResult
			err = ctx.withService(func(svc *api.StudioService) error {
				result = svc.Import(cmd.Context(), defs)
				return nil
			})
			if err != nil {
				return err
			}

			for _, id := range result.Imported {
				fmt.Fprintf(out, "Imported %s\n", id)
			}
			errs := []error{loadErr}
			for _, failure := range result.Failed {
				errs = append(errs, fmt.Errorf("%s: %s", failure.Source, failure.Error))
			}
			if joined := errors.Join(errs...); joined != nil {
				return fmt.Errorf("import incomplete: %w", joined)
			}
			if len(result.Imported) == 0 {
				fmt.Fprintln(out, "No studio definitions found")
			}
			return nil
		},
	}
}

func newStudioExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <studio>",
		Short: "Write a stored studio as a definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := exportFormat(formatFlag, outputPath)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *studio.Store) error {
				st, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if st == nil {
					return fmt.Errorf("studio %s not found", args[0])
				}
				data, err := studiodef.Encode(studiodef.FromStudio(st), format)
				if err != nil {
					return fmt.Errorf("encode studio: %w", err)
				}
				if outputPath == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := fileutil.WriteFileAtomic(outputPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outputPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", st.ID, outputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: toml, yaml, or json (default from --output extension, else toml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (default stdout)")
	return cmd
}

func newStudioDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <studio>",
		Short: "Delete a stored studio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.StudioService) error {
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newStudioValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <path...>",
		Short:       "Check studio definition files without importing them",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := loadDefinitions(args)
			out := cmd.OutOrStdout()
			for _, def := range defs {
				fmt.Fprintf(out, "%s: %s valid\n", def.Source, def.ID)
			}
			return err
		},
	}
}

// loadDefinitions reads every file or directory in paths. Problems are joined
// and returned next to whatever loaded cleanly.
func loadDefinitions(paths []string) ([]*studiodef.Definition, error) {
	var defs []*studiodef.Definition
	var errs []error
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.IsDir() {
			loaded, err := studiodef.LoadDir(path)
			defs = append(defs, loaded...)
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}
		def, err := studiodef.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errors.Join(errs...)
}

func exportFormat(flag, outputPath string) (studiodef.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return studiodef.ParseFormat(flag)
	}
	if outputPath != "" {
		return studiodef.FormatFromPath(outputPath)
	}
	return studiodef.FormatTOML, nil
}

func renderMappingsTable(mappings []api.Mapping) string {
	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		depth := "-"
		if m.LookaheadDepth != nil {
			depth = strconv.Itoa(*m.LookaheadDepth)
		}
		rows = append(rows, []string{
			m.Layer,
			m.Device,
			orDash(m.DeviceID),
			humanLabel(m.Lookahead),
			depth,
			orDash(m.LayerName),
		})
	}
	return renderTable(
		[]string{"Layer", "Device", "Device ID", "Lookahead", "Depth", "Name"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func renderRouteSetsTable(sets []api.RouteSet) string {
	rows := make([][]string, 0, len(sets))
	for _, set := range sets {
		rows = append(rows, []string{
			set.ID,
			set.Name,
			orDash(set.ExclusivityGroup),
			humanLabel(set.Behavior),
			yesNo(set.Active),
			strconv.Itoa(len(set.Routes)),
		})
	}
	return renderTable(
		[]string{"Route Set", "Name", "Group", "Behavior", "Active", "Routes"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
