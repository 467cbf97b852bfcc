package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curio/internal/library"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection to a new revisioned export file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				result, err := svc.Export(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported revision %d (%d items) to %s\n", result.Revision, result.Items, result.Path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the collection with an exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, gateFor(cmd, assumeYes), func(svc *library.Service) error {
				result, err := svc.ImportFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				total := 0
				for _, count := range result.Counts {
					total += count.Count
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items at revision %d (replaced %d)\n", total, result.Revision, result.Replaced)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Replace without asking")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show revision, unsaved changes, and item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				status := svc.Status()
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				for _, line := range statusLines(status, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func statusLines(status library.Status, colorize bool) []string {
	r := statusReport{colorize: colorize}
	r.section("Collection")
	r.value("Revision", strconv.FormatInt(status.Revision, 10))
	lastSaved := status.LastSaved
	if lastSaved == "" {
		lastSaved = "never"
	}
	r.value("Last export", lastSaved)
	if status.Dirty {
		r.status("Changes", statusWarn, "unexported edits; run `curio export`")
	} else {
		r.status("Changes", statusOK, "none since last export")
	}
	for _, count := range status.Counts {
		r.value(count.Label, strconv.Itoa(count.Count))
	}
	r.value("Total", strconv.Itoa(status.Total))
	if len(status.Carried) > 0 {
		r.status("Other keys", statusInfo, fmt.Sprintf("%v kept from import", status.Carried))
	}

	r.section("Storage")
	r.value("Database", status.DatabasePath)
	r.value("Next export", status.NextExportPath)
	if status.Autofill {
		r.status("Auto-fill", statusOK, "enabled")
	} else {
		r.status("Auto-fill", statusInfo, "disabled")
	}
	return r.lines
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample collection into an empty library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				added, err := svc.Seed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d sample items\n", added)
				return nil
			})
		},
	}
}
