package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"textloom/internal/feature"
	"textloom/internal/grid"
)

func newGridCommand(ctx *commandContext) *cobra.Command {
	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "Explore an 11x11 plane of text variations along two adjectives",
	}
	gridCmd.AddCommand(newGridRunCommand(ctx))
	gridCmd.AddCommand(newGridGetCommand(ctx))
	gridCmd.AddCommand(newGridStatusCommand(ctx))
	return gridCmd
}

type gridFlags struct {
	text      string
	file      string
	adjX      string
	adjY      string
	modelFlag string
}

func (f *gridFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "Original text")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the original text from a file")
	cmd.Flags().StringVarP(&f.adjX, "x-adjective", "x", "", "Adjective for the horizontal axis")
	cmd.Flags().StringVarP(&f.adjY, "y-adjective", "y", "", "Adjective for the vertical axis")
	cmd.Flags().StringVarP(&f.modelFlag, "model", "m", "", "Model tier: swift, balanced, or deep")
	_ = cmd.MarkFlagRequired("x-adjective")
	_ = cmd.MarkFlagRequired("y-adjective")
}

func (f *gridFlags) inputs(ctx *commandContext) (feature.GridInputs, error) {
	original, err := readText(f.text, f.file)
	if err != nil {
		return feature.GridInputs{}, err
	}
	model, err := ctx.model(f.modelFlag)
	if err != nil {
		return feature.GridInputs{}, err
	}
	return feature.GridInputs{
		Original:   original,
		AdjectiveX: f.adjX,
		AdjectiveY: f.adjY,
		Model:      model,
	}, nil
}

func newGridRunCommand(ctx *commandContext) *cobra.Command {
	flags := &gridFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate all 121 variations, center ring outward",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			inputs, err := flags.inputs(ctx)
			if err != nil {
				return err
			}
			result, err := ctx.grid.StartGeneration(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Grid run finished: %d generated, %d from cache, %d failed\n",
				result.Completed, result.Skipped, result.Failed)
			for key, msg := range result.Errors {
				fmt.Fprintf(out, "  %s: %s\n", key, msg)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newGridGetCommand(ctx *commandContext) *cobra.Command {
	flags := &gridFlags{}
	cmd := &cobra.Command{
		Use:   "get <x,y>",
		Short: "Fetch one coordinate, generating it (and its neighbors) on demand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			inputs, err := flags.inputs(ctx)
			if err != nil {
				return err
			}
			text, err := ctx.grid.RequestVariant(cmd.Context(), args[0], inputs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newGridStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show grid progress for the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			progress, err := ctx.grid.Progress(cmd.Context())
			if err != nil {
				return err
			}
			rows := []table.Row{
				{"completed", progress.Completed},
				{"failed", progress.Failed},
				{"pending", progress.Pending},
				{"total", grid.CellCount},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"State", "Coordinates"}, rows))
			return nil
		},
	}
}
