package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Inventario-sync/pkg/config"
)

// NewConfigInfoCommand construye el subcomando que muestra la configuración.
func NewConfigInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "config-info",
		Short:         "Muestra la configuración cargada (secretos enmascarados)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInfo(cmd)
		},
	}

	return cmd
}

func runConfigInfo(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuración cargada:")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Aplicación:")
	fmt.Fprintf(out, "  Entorno:          %s\n", cfg.App.Env)
	fmt.Fprintf(out, "  Nivel de log:     %s\n", cfg.App.LogLevel)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "FileMaker:")
	fmt.Fprintf(out, "  Host:             %s\n", cfg.FileMaker.Host)
	fmt.Fprintf(out, "  Base de datos:    %s\n", cfg.FileMaker.Database)
	fmt.Fprintf(out, "  Usuario:          %s\n", cfg.FileMaker.Username)
	fmt.Fprintf(out, "  Contraseña:       %s\n", maskAll(cfg.FileMaker.Password))
	fmt.Fprintf(out, "  TTL de sesión:    %s\n", cfg.FileMaker.SessionTTL)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Shopify:")
	fmt.Fprintf(out, "  Tienda:           %s\n", cfg.Shopify.ShopURL)
	fmt.Fprintf(out, "  Location ID:      %s\n", cfg.Shopify.LocationID)
	fmt.Fprintf(out, "  Access token:     %s\n", maskPrefix(cfg.Shopify.AccessToken))
	fmt.Fprintf(out, "  Webhook secret:   %s\n", maskAll(cfg.Shopify.WebhookSecret))
	fmt.Fprintf(out, "  Versión de API:   %s\n", cfg.Shopify.APIVersion)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Sincronización:")
	fmt.Fprintf(out, "  Tamaño de lote:   %d\n", cfg.Sync.BatchSize)
	fmt.Fprintf(out, "  Diff check:       %t\n", cfg.Sync.EnableDiffCheck)
	fmt.Fprintf(out, "  Pausa entre SKUs: %s\n", cfg.Sync.PacingDelay)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Scheduler:")
	fmt.Fprintf(out, "  Zona horaria:     %s\n", cfg.Scheduler.Timezone)
	fmt.Fprintf(out, "  Hora programada:  %02d:%02d\n", cfg.Scheduler.Hour, cfg.Scheduler.Minute)
	fmt.Fprintf(out, "  Corrida inicial:  %t\n", cfg.Scheduler.RunOnStart)
	fmt.Fprintln(out)

	return nil
}

// maskAll reemplaza el secreto completo por asteriscos.
func maskAll(s string) string {
	if s == "" {
		return "(no configurado)"
	}
	return strings.Repeat("*", len(s))
}

// maskPrefix muestra solo los primeros caracteres del secreto.
func maskPrefix(s string) string {
	if s == "" {
		return "(no configurado)"
	}
	if len(s) <= 10 {
		return strings.Repeat("*", len(s))
	}
	return s[:10] + "..."
}
