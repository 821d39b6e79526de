// Package scheduler contiene el worker nocturno que dispara la
// reconciliación completa de inventario a una hora fija del día.
package scheduler

import (
	"context"
	gosync "sync"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// startupDelay espera antes de la corrida inicial, para dar tiempo a que el
// servidor HTTP levante y los sistemas externos estén accesibles.
const startupDelay = 10 * time.Second

// RunFunc es la operación que el worker ejecuta en cada disparo.
type RunFunc func(ctx context.Context) *entity.SyncResult

// Nightly ejecuta una RunFunc todos los días a la hora configurada.
// Nunca solapa corridas: un disparo que llega con una corrida en curso
// se descarta.
type Nightly struct {
	run      RunFunc
	hour     int
	minute   int
	location *time.Location
	onStart  bool
	log      *logger.Logger

	mu      gosync.Mutex
	running bool

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewNightly construye el worker con la configuración del scheduler.
// Si la zona horaria no puede cargarse se usa UTC y se deja advertencia.
func NewNightly(run RunFunc, cfg config.SchedulerConfig, log *logger.Logger) *Nightly {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().
			Err(err).
			Str("zona", cfg.Timezone).
			Msg("no se pudo cargar la zona horaria, se usa UTC")
		loc = time.UTC
	}

	return &Nightly{
		run:       run,
		hour:      cfg.Hour,
		minute:    cfg.Minute,
		location:  loc,
		onStart:   cfg.RunOnStart,
		log:       log.Componente("scheduler"),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start lanza el bucle del worker en su propia goroutine.
func (n *Nightly) Start() {
	n.log.Info().
		Int("hora", n.hour).
		Int("minuto", n.minute).
		Str("zona", n.location.String()).
		Bool("corrida_inicial", n.onStart).
		Msg("scheduler iniciado")

	go n.loop()
}

// Stop señala el cierre y espera a que el bucle termine. Una corrida en
// curso se deja terminar; no se inician corridas nuevas.
func (n *Nightly) Stop() {
	close(n.stopCh)
	<-n.stoppedCh
	n.log.Info().Msg("scheduler detenido")
}

func (n *Nightly) loop() {
	defer close(n.stoppedCh)

	if n.onStart {
		select {
		case <-time.After(startupDelay):
			n.fire("inicio")
		case <-n.stopCh:
			return
		}
	}

	for {
		now := time.Now().In(n.location)
		next := nextAfter(now, n.hour, n.minute)
		n.log.Info().
			Time("proxima_corrida", next).
			Msg("esperando la próxima corrida programada")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			n.fire("programada")
		case <-n.stopCh:
			timer.Stop()
			return
		}
	}
}

// fire ejecuta la corrida si no hay otra en curso; en caso contrario la
// descarta y lo registra.
func (n *Nightly) fire(origen string) {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		n.log.Warn().Str("origen", origen).Msg("corrida anterior aún en curso, disparo descartado")
		return
	}
	n.running = true
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	n.log.Info().Str("origen", origen).Msg("iniciando corrida de sincronización")

	result := n.run(context.Background())

	n.log.Info().
		Str("origen", origen).
		Bool("exito", result.Success).
		Int("total", result.TotalItems).
		Int("actualizados", result.UpdatedCount).
		Int("omitidos", result.SkippedCount).
		Int("fallidos", result.FailedCount).
		Dur("duracion", result.Duration).
		Msg("corrida de sincronización terminada")
}

// nextAfter calcula el próximo instante con la hora y minuto dados
// estrictamente posterior a now, en la zona horaria de now.
func nextAfter(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
