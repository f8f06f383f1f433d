package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"textloom/internal/feature"
	"textloom/internal/filterchain"
)

func newFiltersCommand(ctx *commandContext) *cobra.Command {
	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Apply a stack of style filters to a text, reusing cached intermediates",
	}
	filtersCmd.AddCommand(newFiltersRunCommand(ctx))
	filtersCmd.AddCommand(newFiltersGetCommand(ctx))
	filtersCmd.AddCommand(newFiltersCatalogCommand())
	return filtersCmd
}

// parseLayerSpecs turns "simplify@50" arguments into a layer stack.
// Arguments are given in application order (first applied first), while
// the stack stores them top-to-bottom, so the list is reversed.
func parseLayerSpecs(specs []string) ([]filterchain.Layer, error) {
	layers := make([]filterchain.Layer, 0, len(specs))
	for i := len(specs) - 1; i >= 0; i-- {
		spec := strings.TrimSpace(specs[i])
		name, value, ok := strings.Cut(spec, "@")
		if !ok {
			return nil, fmt.Errorf("layer %q must look like filter@intensity, e.g. simplify@50", spec)
		}
		intensity, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("layer %q has a non-numeric intensity", spec)
		}
		filter := filterchain.FilterID(strings.ToLower(strings.TrimSpace(name)))
		if !filterchain.KnownFilter(filter) {
			return nil, fmt.Errorf("unknown filter %q (run \"textloom filters catalog\")", name)
		}
		layers = append(layers, filterchain.Layer{
			Filter:    filter,
			Enabled:   true,
			Intensity: intensity,
		})
	}
	return layers, nil
}

type filtersFlags struct {
	text      string
	file      string
	layers    []string
	modelFlag string
}

func (f *filtersFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "Original text")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the original text from a file")
	cmd.Flags().StringArrayVarP(&f.layers, "layer", "l", nil,
		"Filter to apply, as filter@intensity; repeat in application order")
	cmd.Flags().StringVarP(&f.modelFlag, "model", "m", "", "Model tier: swift, balanced, or deep")
}

func (f *filtersFlags) inputs(ctx *commandContext) (feature.FilterInputs, error) {
	original, err := readText(f.text, f.file)
	if err != nil {
		return feature.FilterInputs{}, err
	}
	model, err := ctx.model(f.modelFlag)
	if err != nil {
		return feature.FilterInputs{}, err
	}
	return feature.FilterInputs{Original: original, Model: model}, nil
}

func newFiltersRunCommand(ctx *commandContext) *cobra.Command {
	flags := &filtersFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply the filter stack and print the final text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(flags.layers) == 0 {
				return fmt.Errorf("at least one --layer is required")
			}
			layers, err := parseLayerSpecs(flags.layers)
			if err != nil {
				return err
			}
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			inputs, err := flags.inputs(ctx)
			if err != nil {
				return err
			}
			result, text, err := ctx.filters.StartGeneration(cmd.Context(), inputs, layers)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if text == "" {
				for key, msg := range result.Errors {
					return fmt.Errorf("chain failed at %s: %s", key, msg)
				}
				return fmt.Errorf("chain was not generated")
			}
			fmt.Fprintln(out, text)

			input, output, err := ctx.filters.Tokens(cmd.Context())
			if err == nil && (input > 0 || output > 0) {
				fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d in, %d out\n", input, output)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newFiltersGetCommand(ctx *commandContext) *cobra.Command {
	flags := &filtersFlags{}
	cmd := &cobra.Command{
		Use:   "get <chain-key>",
		Short: "Fetch one chain key (e.g. humor-75|simplify-50), generating missing steps",
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
			text, err := ctx.filters.RequestVariant(cmd.Context(), args[0], inputs)
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

func newFiltersCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "catalog",
		Short:       "List the available filters",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			title := cases.Title(language.English)
			rows := make([]table.Row, 0, len(filterchain.AllFilters))
			for _, id := range filterchain.AllFilters {
				rows = append(rows, table.Row{string(id), title.String(string(id)), "25, 50, 75, 100"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"ID", "Name", "Intensities"}, rows))
			return nil
		},
	}
}
