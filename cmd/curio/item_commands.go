package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curio/internal/catalog"
	"curio/internal/imageref"
	"curio/internal/library"
	"curio/internal/schema"
)

// listPreviewFields is how many schema fields the list table shows.
const listPreviewFields = 2

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "List the items in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := schema.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				items := svc.Snapshot().Items(category)
				if jsonOutput {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintf(out, "No %s yet\n", strings.ToLower(schema.Of(category).Plural))
					return nil
				}
				fields := schema.Of(category).Fields
				if len(fields) > listPreviewFields {
					fields = fields[:listPreviewFields]
				}
				headers := []string{"#", "ID", "Title"}
				for _, field := range fields {
					headers = append(headers, schema.Label(field))
				}
				headers = append(headers, "Image")
				aligns := []columnAlignment{alignRight}

				rows := make([][]string, 0, len(items))
				for i, item := range items {
					row := []string{strconv.Itoa(i + 1), item.ID, item.Title}
					for _, field := range fields {
						row = append(row, item.Details.Text(field))
					}
					row = append(row, imageref.Describe(item.ImageURL))
					rows = append(rows, row)
				}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <category> <id>",
		Short: "Show one item with every field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := schema.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				item, err := svc.Item(category, args[1])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, item)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValue(itemRows(category, item)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func itemRows(category schema.Category, item catalog.Item) [][]string {
	rows := [][]string{
		{"Category", schema.Of(category).Singular},
		{"ID", item.ID},
		{"Title", item.Title},
		{"Image", imageref.Describe(item.ImageURL)},
	}
	for _, field := range schema.Of(category).Fields {
		rows = append(rows, []string{schema.Label(field), item.Details.Text(field)})
	}
	for _, key := range item.Details.Keys() {
		if !schema.AllowsField(category, key) {
			rows = append(rows, []string{key, item.Details.Text(key)})
		}
	}
	if extra := item.Extra(); len(extra) > 0 {
		rows = append(rows, []string{"Other keys", strings.Join(extra, ", ")})
	}
	return rows
}

type itemFlags struct {
	title      string
	fields     []string
	image      string
	autofill   bool
	jsonOutput bool
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Item title")
	cmd.Flags().StringArrayVarP(&f.fields, "field", "f", nil, "Detail field as key=value (repeatable; empty value clears)")
	cmd.Flags().StringVar(&f.image, "image", "", "Cover image: http(s) URL, data URI, or local file")
	cmd.Flags().BoolVar(&f.autofill, "autofill", false, "Look up details by title before applying --field values")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output the saved item as JSON")
}

// apply runs auto-fill when requested, then the explicit flags, so values
// typed on the command line win over suggestions.
func (f *itemFlags) apply(cmd *cobra.Command, svc *library.Service, category schema.Category, draft catalog.Item) (catalog.Item, error) {
	if f.autofill {
		draft = runAutofill(cmd, svc, category, draft)
	}
	if err := applyFieldFlags(&draft, category, f.fields); err != nil {
		return catalog.Item{}, err
	}
	if err := applyImageFlag(&draft, f.image); err != nil {
		return catalog.Item{}, err
	}
	return draft, nil
}

func runAutofill(cmd *cobra.Command, svc *library.Service, category schema.Category, draft catalog.Item) catalog.Item {
	errOut := cmd.ErrOrStderr()
	merged, suggestion, err := svc.Autofill(cmd.Context(), category, draft)
	if err != nil {
		fmt.Fprintf(errOut, "Auto-fill: %s\n", formatError(err))
		return draft
	}
	if suggestion.Empty() {
		fmt.Fprintln(errOut, "Auto-fill found no details")
		return merged
	}
	fmt.Fprintf(errOut, "Auto-filled details:\n%s\n", suggestion.String())
	return merged
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "add <category>",
		Short: "Add an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := schema.ParseCategory(args[0])
			if err != nil {
				return err
			}
			title := strings.TrimSpace(flags.title)
			if title == "" {
				return fmt.Errorf("--title: %w", catalog.ErrTitleRequired)
			}
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				draft, err := flags.apply(cmd, svc, category, catalog.Item{Title: title})
				if err != nil {
					return err
				}
				saved, err := svc.Save(cmd.Context(), category, draft)
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return writeJSON(cmd, saved)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (id %s)\n", singularLower(category), saved.Title, saved.ID)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var flags itemFlags
	var clearImage bool

	cmd := &cobra.Command{
		Use:   "edit <category> <id>",
		Short: "Edit an item in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := schema.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, nil, func(svc *library.Service) error {
				draft, err := svc.Item(category, args[1])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					draft.Title = flags.title
				}
				if clearImage {
					draft.ImageURL = ""
				}
				draft, err = flags.apply(cmd, svc, category, draft)
				if err != nil {
					return err
				}
				saved, err := svc.Save(cmd.Context(), category, draft)
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return writeJSON(cmd, saved)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %q\n", singularLower(category), saved.Title)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&clearImage, "clear-image", false, "Remove the cover image")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:     "remove <category> <id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := schema.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, gateFor(cmd, assumeYes), func(svc *library.Service) error {
				removed, err := svc.Delete(cmd.Context(), category, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %q\n", singularLower(category), removed.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
	return cmd
}
