package ports

import (
	"context"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// MarketProvider obtiene datos de mercados desde la Gamma API.
type MarketProvider interface {
	// FetchActiveMarkets devuelve los mercados activos ordenados por
	// volumen 24h descendente, ya filtrados por el volumen mínimo del
	// proveedor. limit acota cuántos mercados pide a la API.
	FetchActiveMarkets(ctx context.Context, limit int) ([]domain.Market, error)

	// CheckResolution consulta si un mercado concreto ya resolvió.
	// Un mercado todavía abierto devuelve Resolution{Resolved: false}
	// sin error.
	CheckResolution(ctx context.Context, marketID string) (domain.Resolution, error)
}
