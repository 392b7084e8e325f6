package entity

import "time"

// Empresa son los datos del emisor registrados ante Hacienda (fila única).
// codEstable/codPuntoVenta son los valores por defecto cuando el DTE no trae
// apéndice de tienda/terminal.
type Empresa struct {
	ID                  int64
	Nombre              string
	NIT                 string
	NRC                 string
	CodActividad        string
	DescActividad       string
	NombreComercial     string
	TipoEstablecimiento string
	Departamento        string
	Municipio           string
	Complemento         string
	Telefono            string
	Correo              string
	CodEstableMH        string
	CodEstable          string
	CodPuntoVentaMH     string
	CodPuntoVenta       string
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}
