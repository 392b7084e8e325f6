// seed-secuencias crea la fila de correlativo (en cero) para cada tipo de DTE
// del catálogo. Es idempotente: los tipos que ya tienen fila se dejan como
// están, así que se puede correr en cada despliegue.
//
// Uso: go run ./cmd/seed-secuencias
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/infrastructure/postgres"
	"github.com/insorpa/dte-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	const query = `
		INSERT INTO secuencias (tipo_dte, secuencia)
		VALUES ($1, 0)
		ON CONFLICT (tipo_dte) DO NOTHING`

	creadas := 0
	for _, tipo := range dte.Tipos {
		cmd, err := pool.Exec(ctx, query, tipo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insertar secuencia %s: %v\n", tipo, err)
			os.Exit(1)
		}
		if cmd.RowsAffected() > 0 {
			creadas++
			fmt.Printf("secuencia creada para tipo %s\n", tipo)
		}
	}
	fmt.Printf("listo: %d secuencias nuevas, %d tipos en total\n", creadas, len(dte.Tipos))
}
