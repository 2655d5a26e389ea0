package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prodkit/composer/pkg/template"
)

// templateCommand groups template inspection and scaffolding.
func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect and scaffold composition templates",
	}

	cmd.AddCommand(c.templateInspectCommand())
	cmd.AddCommand(c.templateInitCommand())

	return cmd
}

// templateInspectCommand creates the "template inspect" subcommand.
func (c *CLI) templateInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the layer slots declared by a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := template.LoadFromFile(args[0])
			if err != nil {
				return err
			}

			layers := tpl.Layers()
			printInfo("%s declares %d layers", args[0], len(layers))
			for _, l := range layers {
				printKeyValue(l.ID(), fmt.Sprintf("pos=(%.0f, %.0f) size=%.0fx%.0f",
					l.Pos().X, l.Pos().Y, l.Size().Width, l.Size().Height))
			}

			if zoom, err := tpl.ZoomSelectionLayer(); err == nil && zoom != nil {
				printDetail("zoom selection: %.0fx%.0f at (%.0f, %.0f)",
					zoom.Size().Width, zoom.Size().Height, zoom.Pos().X, zoom.Pos().Y)
			}
			return nil
		},
	}
}

// templateInitCommand creates the "template init" subcommand: a starter
// template over a background image, written as template.svg.
func (c *CLI) templateInitCommand() *cobra.Command {
	var (
		background string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter template over a background image",
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl := template.New()
			if outputDir != "" {
				if err := tpl.SetOutputDir(outputDir); err != nil {
					return err
				}
			}
			if err := tpl.SetBackground(background, nil); err != nil {
				return err
			}

			canvas := tpl.CanvasSize()
			if _, err := tpl.AddLayer(
				template.Position{X: canvas.Width / 4, Y: canvas.Height / 4},
				template.Size{Width: canvas.Width / 2, Height: canvas.Height / 2},
				template.Primary,
			); err != nil {
				return err
			}

			path, err := tpl.Render()
			if err != nil {
				return err
			}
			printSuccess("Template written")
			printFile(path)
			printNextStep("Render it", fmt.Sprintf("%s generate -t %s", appName, path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&background, "background", "b", "", "background image establishing the canvas (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write template.svg into")
	_ = cmd.MarkFlagRequired("background")

	return cmd
}
