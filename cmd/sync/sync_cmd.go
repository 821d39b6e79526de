package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// SyncOptions banderas del subcomando sync.
type SyncOptions struct {
	*RootOptions
	DryRun bool
}

// NewSyncCommand construye el subcomando de reconciliación completa.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Ejecuta la reconciliación completa de inventario",
		Long: `Recorre todos los productos habilitados para la web en FileMaker,
recalcula su stock y empuja las cantidades resultantes a Shopify.

Con --dry-run se calculan y muestran los cambios sin escribir en Shopify.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "calcula los cambios sin aplicarlos")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	a, err := buildApp(opts.RootOptions)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer a.close(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Sincronización FileMaker → Shopify")
	if opts.DryRun {
		fmt.Fprintln(out, "MODO DRY-RUN: no se escribirá en Shopify")
	}
	fmt.Fprintln(out)

	result := a.reconcile.Run(ctx, opts.DryRun)
	printResult(out, result)

	if !result.Success {
		return fmt.Errorf("la sincronización terminó con %d errores", result.FailedCount)
	}
	return nil
}
