package entity

import (
	"time"

	"github.com/google/uuid"
)

// SyncError describe el fallo de un ítem durante una sincronización.
// SKU vale "SYSTEM" cuando el fallo no es atribuible a un producto concreto.
type SyncError struct {
	SKU     string `json:"sku"`
	Message string `json:"message"`
}

// SKU reservado para errores de sistema (por ejemplo, fallo al listar productos).
const SystemSKU = "SYSTEM"

// SyncResult acumula el resultado de una corrida de sincronización.
// Invariante: UpdatedCount + SkippedCount + FailedCount <= TotalItems.
type SyncResult struct {
	RunID        string        `json:"run_id"`
	Success      bool          `json:"success"`
	TotalItems   int           `json:"total_items"`
	UpdatedCount int           `json:"updated_count"`
	SkippedCount int           `json:"skipped_count"`
	FailedCount  int           `json:"failed_count"`
	Errors       []SyncError   `json:"errors,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Duration     time.Duration `json:"duration_ns"`
}

// NewSyncResult crea un resultado con un identificador de corrida y la marca
// de inicio ya estampados. El identificador correlaciona logs, respuesta del
// CLI y reportes de una misma corrida.
func NewSyncResult() *SyncResult {
	return &SyncResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
}

// AddError registra el fallo de un ítem y lo cuenta como fallido.
func (r *SyncResult) AddError(sku, message string) {
	r.Errors = append(r.Errors, SyncError{SKU: sku, Message: message})
	r.FailedCount++
}

// AddUpdated cuenta un ítem actualizado en la tienda.
func (r *SyncResult) AddUpdated() { r.UpdatedCount++ }

// AddSkipped cuenta un ítem omitido (cantidad ya coincidente).
func (r *SyncResult) AddSkipped() { r.SkippedCount++ }

// Finalize estampa el fin de la corrida y deriva Success y Duration.
// Una corrida es exitosa solo si ningún ítem falló.
func (r *SyncResult) Finalize() {
	r.EndedAt = time.Now()
	r.Duration = r.EndedAt.Sub(r.StartedAt)
	r.Success = r.FailedCount == 0
}

// SuccessRate devuelve el porcentaje de ítems actualizados sobre el total.
func (r *SyncResult) SuccessRate() float64 {
	if r.TotalItems == 0 {
		return 0
	}
	return float64(r.UpdatedCount) / float64(r.TotalItems) * 100
}
