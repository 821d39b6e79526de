// sync es la herramienta de operación manual: reconciliación completa o
// por SKU, prueba de conectividad y revisión de la configuración cargada.
//
// Uso: sync [comando] — ver `sync --help` para los subcomandos.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// RootOptions contiene las banderas globales de todos los subcomandos.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand construye el comando raíz del CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Sincronización de inventario FileMaker → Shopify",
		Long:    "Herramienta de operación para la sincronización de stock entre\nFileMaker (fuente de verdad) y Shopify (vitrina).",
		Version: version,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "salida detallada (nivel debug)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSyncSKUCommand(opts))
	cmd.AddCommand(NewTestConnectionCommand(opts))
	cmd.AddCommand(NewConfigInfoCommand(opts))

	return cmd
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
