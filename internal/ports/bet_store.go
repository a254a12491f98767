package ports

import (
	"context"
	"errors"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// ErrNoResolvedBets indica que todavía no hay bets resueltos sobre los
// que calcular calibración.
var ErrNoResolvedBets = errors.New("no resolved bets yet")

// BetStore persiste las apuestas marcadas y mide la calibración.
type BetStore interface {
	// LogBet registra una apuesta nueva y devuelve su id. Si ya hay una
	// fila sin resolver para (market_id, side) devuelve el id existente
	// sin insertar: el tracker es idempotente por mercado y lado.
	LogBet(ctx context.Context, bet domain.TrackedBet) (int64, error)

	// OpenBets devuelve las apuestas sin resolver, más recientes primero.
	OpenBets(ctx context.Context) ([]domain.TrackedBet, error)

	// ResolveMarket resuelve todas las filas abiertas del mercado con el
	// outcome dado, calculando P&L sobre betSizeUSD por fila. Las filas
	// ya resueltas no se tocan nunca.
	ResolveMarket(ctx context.Context, marketID, outcome string, betSizeUSD float64) ([]domain.ResolvedBet, error)

	// CalibrationReport calcula el informe de calibración sobre los
	// bets resueltos. Sin bets resueltos devuelve ErrNoResolvedBets.
	CalibrationReport(ctx context.Context) (domain.CalibrationReport, error)

	// Stats devuelve el resumen para la pantalla de status.
	Stats(ctx context.Context) (domain.TrackerStats, error)

	Close() error
}
