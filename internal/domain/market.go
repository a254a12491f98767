package domain

import (
	"fmt"
	"time"
)

// Resultados posibles de un mercado binario resuelto.
const (
	OutcomeYes = "YES"
	OutcomeNo  = "NO"
)

// Market representa un mercado de predicción binario en Polymarket.
// Se obtiene fresco en cada ciclo de scan; nunca se persiste.
type Market struct {
	ConditionID string
	Question    string
	Category    string    // enriquecido desde Gamma, puede estar vacío
	YesPrice    float64   // precio actual del lado YES (0-1)
	NoPrice     float64   // precio actual del lado NO (0-1)
	Volume24h   float64   // volumen últimas 24h en USDC
	TotalVolume float64   // volumen histórico total en USDC
	Liquidity   float64   // liquidez actual en USDC
	EndDate     time.Time // fecha de resolución; zero = desconocida
	Resolved    bool
	Outcome     string // "YES" | "NO" si está resuelto, "" si no

	// Token IDs del CLOB — necesarios para ejecución live.
	YesTokenID string
	NoTokenID  string
}

// ImpliedProb devuelve la probabilidad implícita del mercado (= precio YES).
func (m Market) ImpliedProb() float64 {
	return m.YesPrice
}

// Spread devuelve el take del market maker: YES + NO - 1.
func (m Market) Spread() float64 {
	return m.YesPrice + m.NoPrice - 1.0
}

// DaysToEnd devuelve los días hasta la resolución del mercado.
// Devuelve 0 si EndDate no está definido o ya pasó.
func (m Market) DaysToEnd(now time.Time) float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	d := m.EndDate.Sub(now).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// SidePrice devuelve el precio del lado dado ("YES" o "NO").
func (m Market) SidePrice(side string) float64 {
	if side == OutcomeYes {
		return m.YesPrice
	}
	return m.NoPrice
}

// SideTokenID devuelve el token ID del CLOB para el lado dado.
func (m Market) SideTokenID(side string) string {
	if side == OutcomeYes {
		return m.YesTokenID
	}
	return m.NoTokenID
}

// Validate comprueba que los campos del mercado son coherentes.
// Un mercado inválido se salta, no aborta el ciclo.
func (m Market) Validate() error {
	if m.ConditionID == "" {
		return fmt.Errorf("market: empty condition id")
	}
	if m.Question == "" {
		return fmt.Errorf("market %s: empty question", m.ConditionID)
	}
	if m.YesPrice < 0 || m.YesPrice > 1 {
		return fmt.Errorf("market %s: yes price %.4f out of [0,1]", m.ConditionID, m.YesPrice)
	}
	if m.NoPrice < 0 || m.NoPrice > 1 {
		return fmt.Errorf("market %s: no price %.4f out of [0,1]", m.ConditionID, m.NoPrice)
	}
	if m.Liquidity < 0 || m.Volume24h < 0 {
		return fmt.Errorf("market %s: negative liquidity or volume", m.ConditionID)
	}
	return nil
}

// TruncateQuestion devuelve la pregunta truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		if len(conditionID) > 20 {
			q = conditionID[:20] + "..."
		} else {
			q = conditionID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
