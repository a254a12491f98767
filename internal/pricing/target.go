package pricing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Dirección del umbral en la pregunta del mercado.
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
)

// Patrones de precio objetivo, en orden de prioridad. Cubren "$70k",
// "$70,000", "$95K" y "70,000" sin símbolo. El primero que produzca un
// target plausible gana.
var targetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$([0-9,]+)k\b`),
	regexp.MustCompile(`(?i)\$([0-9,]+),([0-9]+)`),
	regexp.MustCompile(`(?i)\$([0-9]+)K\b`),
	regexp.MustCompile(`(?i)([0-9]+),([0-9]{3})\b`),
}

var aboveTerms = []string{"above", "over", "exceed", "higher than", "more than", ">"}

// ExtractTarget saca el precio objetivo en USD de la pregunta de un mercado.
// Números con sufijo k/K o menores de 1000 se escalan ×1000. Solo se aceptan
// targets en (1 000, 10 000 000); fuera de ese rango se prueba el siguiente
// patrón. Devuelve false si ningún patrón produce un target plausible.
func ExtractTarget(question string) (float64, bool) {
	for _, pat := range targetPatterns {
		m := pat.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		num := strings.ReplaceAll(m[1], ",", "")
		target, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(m[0]), "k") || target < 1000 {
			target *= 1000
		}
		if target > 1000 && target < 10_000_000 {
			return target, true
		}
	}
	return 0, false
}

// ThresholdDirection clasifica la pregunta como apuesta "above" o "below"
// el target. Sin término direccional claro se asume "below": la mayoría de
// mercados ambiguos de Polymarket son "dip to"/"drop to".
func ThresholdDirection(question string) string {
	q := strings.ToLower(question)
	for _, term := range aboveTerms {
		if strings.Contains(q, term) {
			return DirectionAbove
		}
	}
	return DirectionBelow
}

// ThresholdAnalysis es la valoración completa de un mercado de umbral de
// precio BTC contra el modelo de vol.
type ThresholdAnalysis struct {
	Target            float64
	Direction         string
	OurProbability    float64
	MarketProbability float64
	Edge              float64 // nuestra prob - precio YES
	DaysToExpiry      float64
	ImpliedVol        float64
	ZScore            float64
	MoveNeededPct     float64
	Reasoning         string
}

// AnalyzeMarket valora un mercado tipo "Will BTC be above $X by <date>?".
// Devuelve false si la pregunta no contiene un target extraíble o el mercado
// no declara fecha de cierre. El horizonte se trunca por abajo a 1 día para
// que mercados a punto de expirar no degeneren en el indicador determinista.
func (m Model) AnalyzeMarket(question string, yesPrice float64, endDate, now time.Time) (ThresholdAnalysis, bool) {
	target, ok := ExtractTarget(question)
	if !ok || endDate.IsZero() {
		return ThresholdAnalysis{}, false
	}

	days := math.Max(1, endDate.Sub(now).Hours()/24)
	direction := ThresholdDirection(question)

	res := m.PriceAboveTarget(target, days)
	ourProb := res.ProbAbove
	if direction == DirectionBelow {
		ourProb = res.ProbBelow
	}

	edge := ourProb - yesPrice
	movePct := (target - m.Spot) / m.Spot * 100

	reasoning := fmt.Sprintf(
		"BTC at $%s, target $%s (%s), %.0fd window. Move needed: %+.1f%%. Vol: %.0f%% ann. Z-score: %.2f. Model prob: %.1f%% vs market %.1f%% (edge: %+.1f%%)",
		humanize.Commaf(math.Round(m.Spot)), humanize.Commaf(math.Round(target)), direction, days,
		movePct, res.ImpliedVol*100, res.ZScore,
		ourProb*100, yesPrice*100, edge*100,
	)

	return ThresholdAnalysis{
		Target:            target,
		Direction:         direction,
		OurProbability:    ourProb,
		MarketProbability: yesPrice,
		Edge:              edge,
		DaysToExpiry:      days,
		ImpliedVol:        res.ImpliedVol,
		ZScore:            res.ZScore,
		MoveNeededPct:     movePct,
		Reasoning:         reasoning,
	}, true
}
