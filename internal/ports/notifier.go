package ports

import (
	"context"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// Notifier presenta la actividad del bot al usuario. Las
// implementaciones de consola imprimen tablas; la de Telegram manda
// mensajes HTML. Un notifier que falla nunca debe tumbar el ciclo.
type Notifier interface {
	// NotifyStartup anuncia el arranque del bot con su modo y bankroll.
	NotifyStartup(ctx context.Context, mode string, bankrollUSD float64) error

	// NotifyShutdown anuncia la parada con el resumen de la sesión.
	NotifyShutdown(ctx context.Context, scans, betsPlaced int, totalPnL float64) error

	// NotifyOpportunities muestra el top de oportunidades de un scan,
	// ya ordenadas por convicción.
	NotifyOpportunities(ctx context.Context, opportunities []domain.Opportunity) error

	// NotifyBetPlaced anuncia una apuesta registrada (paper) o
	// ejecutada (live, con orderID del CLOB).
	NotifyBetPlaced(ctx context.Context, bet domain.TrackedBet, sizeUSD float64, live bool, orderID string) error

	// NotifyExecutionFailure anuncia una orden live que no se pudo
	// ejecutar.
	NotifyExecutionFailure(ctx context.Context, reason string) error

	// NotifyResolution anuncia la resolución de una posición abierta.
	NotifyResolution(ctx context.Context, bet domain.TrackedBet, outcome string, won bool, pnl float64) error

	// NotifyCalibration publica el informe de calibración.
	NotifyCalibration(ctx context.Context, report domain.CalibrationReport) error
}
