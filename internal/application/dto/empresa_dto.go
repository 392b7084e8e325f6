package dto

import "github.com/insorpa/dte-api/internal/domain/entity"

// EmpresaRequest alta/actualización de los datos del emisor.
type EmpresaRequest struct {
	Nombre              string `json:"nombre"`
	NIT                 string `json:"nit"`
	NRC                 string `json:"nrc"`
	CodActividad        string `json:"cod_actividad"`
	DescActividad       string `json:"desc_actividad"`
	NombreComercial     string `json:"nombre_comercial"`
	TipoEstablecimiento string `json:"tipo_establecimiento"`
	Departamento        string `json:"departamento"`
	Municipio           string `json:"municipio"`
	Complemento         string `json:"complemento"`
	Telefono            string `json:"telefono"`
	Correo              string `json:"correo"`
	CodEstableMH        string `json:"cod_estable_mh"`
	CodEstable          string `json:"cod_estable"`
	CodPuntoVentaMH     string `json:"cod_punto_venta_mh"`
	CodPuntoVenta       string `json:"cod_punto_venta"`
}

// EmpresaResponse datos del emisor.
type EmpresaResponse struct {
	ID int64 `json:"id"`
	EmpresaRequest
}

// ToEntity construye la entidad desde la request.
func (r EmpresaRequest) ToEntity() *entity.Empresa {
	return &entity.Empresa{
		Nombre:              r.Nombre,
		NIT:                 r.NIT,
		NRC:                 r.NRC,
		CodActividad:        r.CodActividad,
		DescActividad:       r.DescActividad,
		NombreComercial:     r.NombreComercial,
		TipoEstablecimiento: r.TipoEstablecimiento,
		Departamento:        r.Departamento,
		Municipio:           r.Municipio,
		Complemento:         r.Complemento,
		Telefono:            r.Telefono,
		Correo:              r.Correo,
		CodEstableMH:        r.CodEstableMH,
		CodEstable:          r.CodEstable,
		CodPuntoVentaMH:     r.CodPuntoVentaMH,
		CodPuntoVenta:       r.CodPuntoVenta,
	}
}

// ToEmpresaResponse mapea la entidad al DTO de salida.
func ToEmpresaResponse(e *entity.Empresa) *EmpresaResponse {
	return &EmpresaResponse{
		ID: e.ID,
		EmpresaRequest: EmpresaRequest{
			Nombre:              e.Nombre,
			NIT:                 e.NIT,
			NRC:                 e.NRC,
			CodActividad:        e.CodActividad,
			DescActividad:       e.DescActividad,
			NombreComercial:     e.NombreComercial,
			TipoEstablecimiento: e.TipoEstablecimiento,
			Departamento:        e.Departamento,
			Municipio:           e.Municipio,
			Complemento:         e.Complemento,
			Telefono:            e.Telefono,
			Correo:              e.Correo,
			CodEstableMH:        e.CodEstableMH,
			CodEstable:          e.CodEstable,
			CodPuntoVentaMH:     e.CodPuntoVentaMH,
			CodPuntoVenta:       e.CodPuntoVenta,
		},
	}
}
