package domain

import "time"

// Etiquetas de confianza para una oportunidad.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Opportunity es el resultado del análisis de un mercado: la estimación de
// probabilidad convertida en EV y fracción de Kelly por lado. Se deriva en
// cada ciclo y nunca se persiste.
type Opportunity struct {
	Market    Market
	ScannedAt time.Time

	OurProbability float64 // nuestra probabilidad estimada de YES
	Edge           float64 // OurProbability - precio YES del mercado

	EVYes    float64
	EVNo     float64
	KellyYes float64
	KellyNo  float64

	RecommendedSide string // "YES" | "NO"
	Confidence      string // HIGH | MEDIUM | LOW
	Method          string
	Reasoning       string
}

// BestEV devuelve el EV del mejor lado.
func (o Opportunity) BestEV() float64 {
	if o.EVYes > o.EVNo {
		return o.EVYes
	}
	return o.EVNo
}

// BestKelly devuelve la fracción de Kelly del lado con mayor EV.
func (o Opportunity) BestKelly() float64 {
	if o.EVYes > o.EVNo {
		return o.KellyYes
	}
	return o.KellyNo
}

// MaxKelly devuelve la mayor de las dos fracciones de Kelly.
// Es la clave de ordenación del ranking.
func (o Opportunity) MaxKelly() float64 {
	if o.KellyYes > o.KellyNo {
		return o.KellyYes
	}
	return o.KellyNo
}

// SideEV devuelve el EV del lado dado.
func (o Opportunity) SideEV(side string) float64 {
	if side == OutcomeYes {
		return o.EVYes
	}
	return o.EVNo
}

// SideKelly devuelve la fracción de Kelly del lado dado.
func (o Opportunity) SideKelly(side string) float64 {
	if side == OutcomeYes {
		return o.KellyYes
	}
	return o.KellyNo
}

// ConfidenceLabel mapea una confianza numérica a su etiqueta.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.65:
		return ConfidenceHigh
	case confidence >= 0.50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
