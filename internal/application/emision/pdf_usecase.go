package emision

import (
	"context"
	"fmt"

	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
)

// PDFUseCase reimprime la Representación Gráfica de un DTE ya persistido.
type PDFUseCase struct {
	dteRepo     repository.DTERepository
	empresaRepo repository.EmpresaRepository
	generador   GeneradorPDF
}

// NewPDFUseCase construye el caso de uso de reimpresión.
func NewPDFUseCase(dteRepo repository.DTERepository, empresaRepo repository.EmpresaRepository, gen GeneradorPDF) *PDFUseCase {
	return &PDFUseCase{dteRepo: dteRepo, empresaRepo: empresaRepo, generador: gen}
}

// Reimprimir genera el PDF de un DTE. Solo los estados PROCESADO y ANULADO
// tienen representación válida; un rechazado o en contingencia no la tiene.
func (uc *PDFUseCase) Reimprimir(ctx context.Context, codGeneracion string) ([]byte, error) {
	registro, err := uc.dteRepo.GetByCodGeneracion(ctx, codGeneracion)
	if err != nil {
		return nil, err
	}
	if registro.Estado != entity.EstadoProcesado && registro.Estado != entity.EstadoAnulado {
		return nil, fmt.Errorf("%w: el DTE en estado %s no tiene representación gráfica", domain.ErrInvalidInput, registro.Estado)
	}
	empresa, err := uc.empresaRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("datos del emisor: %w", err)
	}
	return uc.generador.Generar(ctx, registro, empresa)
}
