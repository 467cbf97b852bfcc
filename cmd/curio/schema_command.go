package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"curio/internal/schema"
)

type fieldView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

type schemaView struct {
	Category schema.Category `json:"category"`
	Singular string          `json:"singular"`
	Plural   string          `json:"plural"`
	Fields   []fieldView     `json:"fields"`
}

func viewOf(category schema.Category) schemaView {
	s := schema.Of(category)
	view := schemaView{Category: category, Singular: s.Singular, Plural: s.Plural}
	for _, field := range s.Fields {
		view.Fields = append(view.Fields, fieldView{
			Name:  field,
			Label: schema.Label(field),
			Kind:  schema.KindOf(field).String(),
		})
	}
	return view
}

func newSchemaCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "schema [category]",
		Short:       "Describe the categories and their fields",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				category, err := schema.ParseCategory(args[0])
				if err != nil {
					return err
				}
				view := viewOf(category)
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				rows := make([][]string, 0, len(view.Fields))
				for _, f := range view.Fields {
					rows = append(rows, []string{f.Name, f.Label, f.Kind})
				}
				fmt.Fprintf(out, "%s (%s)\n", view.Plural, view.Category)
				fmt.Fprintln(out, renderTable([]string{"Field", "Label", "Kind"}, rows, nil))
				return nil
			}

			views := make([]schemaView, 0, len(schema.Categories()))
			for _, category := range schema.Categories() {
				views = append(views, viewOf(category))
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				names := make([]string, 0, len(view.Fields))
				for _, f := range view.Fields {
					names = append(names, f.Name)
				}
				rows = append(rows, []string{string(view.Category), view.Plural, strings.Join(names, ", ")})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Name", "Fields"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
