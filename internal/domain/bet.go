package domain

import "time"

// TrackedBet es una oportunidad registrada en el tracker de calibración.
// Se crea una vez por (market_id, side) mientras no esté resuelta, se resuelve
// exactamente una vez y nunca se borra: es el histórico de calibración.
type TrackedBet struct {
	ID             int64
	MarketID       string
	Question       string
	Category       string
	Side           string // "YES" | "NO"
	MarketPrice    float64
	OurProbability float64
	EV             float64
	Kelly          float64
	Confidence     string // HIGH | MEDIUM | LOW
	Reasoning      string
	FlaggedAt      time.Time
	EndDate        time.Time // zero = desconocida

	Resolved   bool
	Outcome    string // "YES" | "NO" cuando se resuelve
	ProfitLoss float64
	ResolvedAt time.Time
}

// ResolvedBet es el resultado de resolver una fila del tracker.
type ResolvedBet struct {
	Bet TrackedBet
	Won bool
	PnL float64
}

// BucketCalibration es el error de calibración de un bucket de probabilidad.
type BucketCalibration struct {
	Bucket     float64 // probabilidad redondeada al 0.1 más cercano
	Count      int
	ActualRate float64 // frecuencia observada de aciertos en el bucket
	AbsError   float64 // |ActualRate - Bucket|
}

// HypotheticalBetUSD es el tamaño hipotético por bet que usa el tracker
// para medir P&L y ROI de forma comparable entre apuestas.
const HypotheticalBetUSD = 100.0

// CalibrationReport resume el rendimiento de los bets resueltos.
// ROI asume $100 hipotéticos por bet en el denominador.
type CalibrationReport struct {
	TotalResolved int
	Wins          int
	Losses        int
	WinRate       float64
	TotalPnL      float64
	ROI           float64
	AvgKelly      float64
	Buckets       []BucketCalibration

	HighConfidenceCount   int
	HighConfidenceWinRate float64

	// ReadyForLive: ≥50 bets resueltos con P&L total positivo.
	ReadyForLive bool
}

// TrackerStats es el resumen para la pantalla de status.
type TrackerStats struct {
	OpenBets      int
	TotalLogged   int
	TotalResolved int
	ByConfidence  map[string]int // bets abiertos por etiqueta de confianza
}

// RiskState es el estado de riesgo al inicio de un ciclo de scan.
// Se actualiza una vez por ciclo antes de cualquier sizing; el sizer
// lo lee pero nunca lo muta.
type RiskState struct {
	BankrollUSD     float64
	OpenExposureUSD float64
}

// RemainingCapacity devuelve el capital aún desplegable dado el tope de
// exposición total (fracción del bankroll).
func (r RiskState) RemainingCapacity(maxTotalExposure float64) float64 {
	return r.BankrollUSD*maxTotalExposure - r.OpenExposureUSD
}

// SizingDecision es la salida del sizer: tamaño aprobado o razón de rechazo.
// Un rechazo es un resultado normal, no un error.
type SizingDecision struct {
	Approved               bool
	BetSizeUSD             float64
	EffectiveKellyFraction float64
	RejectionReason        string
	Reasoning              string
}
