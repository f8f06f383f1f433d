package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"textloom/internal/bridge"
	"textloom/internal/feature"
)

func newBridgeCommand(ctx *commandContext) *cobra.Command {
	bridgeCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Interpolate nine texts between two anchor texts",
	}
	bridgeCmd.AddCommand(newBridgeRunCommand(ctx))
	bridgeCmd.AddCommand(newBridgeGetCommand(ctx))
	return bridgeCmd
}

type bridgeFlags struct {
	left      string
	leftFile  string
	right     string
	rightFile string
	modelFlag string
}

func (f *bridgeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.left, "left", "", "Anchor text at position 0")
	cmd.Flags().StringVar(&f.leftFile, "left-file", "", "Read the left anchor from a file")
	cmd.Flags().StringVar(&f.right, "right", "", "Anchor text at position 10")
	cmd.Flags().StringVar(&f.rightFile, "right-file", "", "Read the right anchor from a file")
	cmd.Flags().StringVarP(&f.modelFlag, "model", "m", "", "Model tier: swift, balanced, or deep")
}

func (f *bridgeFlags) inputs(ctx *commandContext) (feature.BridgeInputs, error) {
	left, err := readText(f.left, f.leftFile)
	if err != nil {
		return feature.BridgeInputs{}, fmt.Errorf("left anchor: %w", err)
	}
	right, err := readText(f.right, f.rightFile)
	if err != nil {
		return feature.BridgeInputs{}, fmt.Errorf("right anchor: %w", err)
	}
	model, err := ctx.model(f.modelFlag)
	if err != nil {
		return feature.BridgeInputs{}, err
	}
	return feature.BridgeInputs{Left: left, Right: right, Model: model}, nil
}

func newBridgeRunCommand(ctx *commandContext) *cobra.Command {
	flags := &bridgeFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate all nine intermediate positions in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			inputs, err := flags.inputs(ctx)
			if err != nil {
				return err
			}
			result, err := ctx.bridge.StartGeneration(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bridge run finished: %d generated, %d from cache, %d failed\n",
				result.Completed, result.Skipped, result.Failed)
			for key, msg := range result.Errors {
				fmt.Fprintf(out, "  position %s: %s\n", key, msg)
			}
			if result.Failed > 0 {
				return nil
			}

			// Print the full gradient, anchors included.
			for position := bridge.AnchorLeft; position <= bridge.AnchorRight; position++ {
				text, err := ctx.bridge.RequestVariant(cmd.Context(), bridge.Key(position), inputs)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n[%d/10]\n%s\n", position, text)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBridgeGetCommand(ctx *commandContext) *cobra.Command {
	flags := &bridgeFlags{}
	cmd := &cobra.Command{
		Use:   "get <position>",
		Short: "Fetch one position (0-10), generating missing dependencies on demand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("position must be a number between 0 and 10, got %q", args[0])
			}
			if err := ctx.runtime(); err != nil {
				return err
			}
			defer ctx.close()

			inputs, err := flags.inputs(ctx)
			if err != nil {
				return err
			}
			text, err := ctx.bridge.RequestVariant(cmd.Context(), args[0], inputs)
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
