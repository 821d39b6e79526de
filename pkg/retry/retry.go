// Package retry implementa reintentos con espera exponencial para fallos
// transitorios de red. Los errores de aplicación (códigos HTTP, respuestas
// inválidas del servidor) nunca se reintentan: eso lo decide cada cliente.
package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// Policy define la estrategia de reintentos.
type Policy struct {
	MaxAttempts int           // intentos totales, incluido el primero (mínimo 1)
	BaseDelay   time.Duration // espera tras el primer fallo
	Exponential bool          // si es true, la espera se duplica en cada reintento
}

// DefaultPolicy devuelve la política estándar: 3 intentos, 1s base, exponencial.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, Exponential: true}
}

// Do ejecuta fn y reintenta solo ante errores transitorios de red o timeout.
// Respeta la cancelación del contexto durante las esperas.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !Retryable(err) || attempt == attempts {
			return err
		}
		if waitErr := wait(ctx, delay); waitErr != nil {
			return waitErr
		}
		if p.Exponential {
			delay *= 2
		}
	}
	return err
}

// Retryable reporta si el error es un fallo transitorio de red o timeout.
// Los errores de contexto cancelado no lo son.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
