package domain

// Métodos de estimación. Cada estimador etiqueta su resultado para que el
// tracker pueda medir calibración por método.
const (
	MethodVolModel       = "log-normal vol model"
	MethodMacro          = "macro model"
	MethodMarketTrust    = "market trust"
	MethodLongshotBias   = "longshot bias correction"
	MethodFavoriteBias   = "favorite bias correction"
	MethodNearResolution = "near-resolution arb"
	MethodNoEdge         = "no edge detected"
)

// Estimate es la probabilidad estimada de que un mercado resuelva YES.
type Estimate struct {
	Probability float64 // 0-1, clamped a [0.01, 0.99]
	Confidence  float64 // 0-1, cuánto confiamos en la estimación
	Method      string
	Reasoning   string // explicación legible para alertas y tracking
}

// Clamp limita una probabilidad al rango operativo [0.01, 0.99].
// Nunca devolvemos certeza absoluta: un mercado binario siempre puede sorprender.
func Clamp(p float64) float64 {
	if p < 0.01 {
		return 0.01
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}
