package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/weft-dev/weft/pkg/render"
	"github.com/weft-dev/weft/pkg/template"
)

var renderData string

var renderCmd = &cobra.Command{
	Use:   "render <template.html>",
	Short: "Render a template to stdout",
	Long: `Render parses a single template file, evaluates its directives
against the data file, and writes the resulting HTML to stdout.
Suspense boundaries render their content inline.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderData, "data", "d", "", "JSON file of scope variables")
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := parseTemplateFile(args[0])
	if err != nil {
		return err
	}

	var vars map[string]any
	if renderData != "" {
		vars, err = readJSONVars(renderData)
		if err != nil {
			return err
		}
	}

	r := render.New(render.Config{})
	return r.RenderToWriter(os.Stdout, doc, template.NewScope(vars))
}
