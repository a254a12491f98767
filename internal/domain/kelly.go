package domain

// kelly.go — EV y criterio de Kelly para mercados binarios.
//
// EV(YES) = p - yes_price        (pagas yes_price, cobras 1.0 si resuelve YES)
// EV(NO)  = (1-p) - no_price
// Kelly:   f = (p·b - q) / b     con b = 1/price - 1 (odds netos)

// MaxKellyFraction es el tope de la fracción de Kelly.
// Nunca apostamos más del 25% Kelly por mercado.
const MaxKellyFraction = 0.25

// EVKelly agrupa el EV y la fracción de Kelly de ambos lados de un mercado.
type EVKelly struct {
	EVYes    float64
	EVNo     float64
	KellyYes float64
	KellyNo  float64
}

// EVYes devuelve el valor esperado de comprar YES a yesPrice.
func EVYes(prob, yesPrice float64) float64 {
	return prob - yesPrice
}

// EVNo devuelve el valor esperado de comprar NO a noPrice.
func EVNo(prob, noPrice float64) float64 {
	return (1 - prob) - noPrice
}

// KellyFraction calcula la fracción de Kelly para apostar a un resultado con
// probabilidad prob y precio price. Devuelve 0 si el precio está fuera de (0,1).
// El resultado siempre está en [0, maxFraction]: nunca negativo.
func KellyFraction(prob, price, maxFraction float64) float64 {
	if price <= 0 || price >= 1 {
		return 0
	}
	odds := 1.0/price - 1.0
	f := (prob*odds - (1 - prob)) / odds
	if f < 0 {
		return 0
	}
	if f > maxFraction {
		return maxFraction
	}
	return f
}

// Evaluate calcula EV y Kelly de ambos lados con el tope por defecto.
func Evaluate(prob, yesPrice, noPrice float64) EVKelly {
	return EVKelly{
		EVYes:    EVYes(prob, yesPrice),
		EVNo:     EVNo(prob, noPrice),
		KellyYes: KellyFraction(prob, yesPrice, MaxKellyFraction),
		KellyNo:  KellyFraction(1-prob, noPrice, MaxKellyFraction),
	}
}
