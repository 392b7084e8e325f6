package entity

import "time"

// Secuencia es el correlativo por tipo de DTE. Guarda el último valor
// asignado (0 = ninguno); la asignación incrementa y devuelve el nuevo valor
// en una sola sentencia atómica en el repositorio.
type Secuencia struct {
	ID        int64
	TipoDte   string
	Secuencia int64
	CreatedAt time.Time
	UpdatedAt *time.Time
}
