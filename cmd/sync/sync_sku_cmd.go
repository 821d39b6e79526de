package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// SyncSKUOptions banderas del subcomando sync-sku.
type SyncSKUOptions struct {
	*RootOptions
	DryRun bool
}

// NewSyncSKUCommand construye el subcomando de reconciliación de un solo SKU.
func NewSyncSKUCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncSKUOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync-sku <sku>",
		Short: "Sincroniza un solo producto por SKU",
		Long: `Recalcula el stock del SKU indicado en FileMaker y empuja la cantidad
resultante a Shopify. Útil para corregir un producto puntual sin esperar
la corrida nocturna.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncSKU(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "calcula los cambios sin aplicarlos")

	return cmd
}

func runSyncSKU(cmd *cobra.Command, opts *SyncSKUOptions, sku string) error {
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
	fmt.Fprintf(out, "Sincronizando SKU: %s\n", sku)
	if opts.DryRun {
		fmt.Fprintln(out, "MODO DRY-RUN: no se escribirá en Shopify")
	}
	fmt.Fprintln(out)

	result := a.reconcile.RunSingle(ctx, sku, opts.DryRun)

	switch {
	case result.Success && result.UpdatedCount > 0:
		fmt.Fprintf(out, "✓ %s actualizado\n", sku)
	case result.Success && result.SkippedCount > 0:
		fmt.Fprintf(out, "✓ %s sin cambios, no se actualizó\n", sku)
	case result.Success:
		fmt.Fprintf(out, "✓ %s sincronizado\n", sku)
	default:
		fmt.Fprintln(out, "✗ Sincronización fallida")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  %s: %s\n", e.SKU, e.Message)
		}
	}

	if !result.Success {
		return fmt.Errorf("no se pudo sincronizar el SKU %s", sku)
	}
	return nil
}
