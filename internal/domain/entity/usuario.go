package entity

import "time"

// Usuario de la API (operadores del POS/ERP).
type Usuario struct {
	ID           string // UUID
	Username     string
	Email        string
	PasswordHash string
	Superuser    bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
