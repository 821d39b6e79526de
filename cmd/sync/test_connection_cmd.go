package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewTestConnectionCommand construye el subcomando de prueba de conectividad.
func NewTestConnectionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Prueba la conexión con FileMaker y Shopify",
		Long: `Verifica que las credenciales sean correctas y que ambas APIs
respondan: abre sesión en FileMaker Data API y consulta un SKU de
prueba en Shopify Admin API.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestConnection(cmd, rootOpts)
		},
	}

	return cmd
}

func runTestConnection(cmd *cobra.Command, rootOpts *RootOptions) error {
	a, err := buildApp(rootOpts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer a.close(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Probando conexiones...")
	fmt.Fprintln(out)

	report := a.connectivity.Check(ctx)

	fmt.Fprintln(out, "FileMaker Data API:")
	if report.Ledger.OK {
		fmt.Fprintln(out, "  ✓ Conexión exitosa")
	} else {
		fmt.Fprintf(out, "  ✗ Conexión fallida: %s\n", report.Ledger.Error)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Shopify Admin API:")
	if report.Storefront.OK {
		fmt.Fprintln(out, "  ✓ Conexión exitosa")
	} else {
		fmt.Fprintf(out, "  ✗ Conexión fallida: %s\n", report.Storefront.Error)
	}
	fmt.Fprintln(out)

	if !report.Healthy() {
		return errors.New("al menos una conexión falló")
	}

	fmt.Fprintln(out, "✓ Todas las conexiones funcionan")
	return nil
}
