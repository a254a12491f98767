package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado binario de Gamma. Gamma devuelve algunos
// campos numéricos como strings JSON, usamos json.Number.
type gammaMarket struct {
	ID          string       `json:"id"`
	ConditionID string       `json:"conditionId"`
	Question    string       `json:"question"`
	Category    string       `json:"category"`
	Tokens      []gammaToken `json:"tokens"`
	Volume24h   json.Number  `json:"volume24hr"`
	Volume      json.Number  `json:"volume"`
	Liquidity   json.Number  `json:"liquidity"`
	EndDate     string       `json:"endDate"`
	Active      bool         `json:"active"`
	Closed      bool         `json:"closed"`

	// Campos de resolución; solo presentes cuando el mercado cerró.
	Resolved   bool   `json:"resolved"`
	Resolution string `json:"resolution"`
	Outcome    string `json:"outcome"`
}

// gammaToken es un token (Yes/No) dentro de un mercado de Gamma.
type gammaToken struct {
	TokenID string      `json:"token_id"`
	Outcome string      `json:"outcome"`
	Price   json.Number `json:"price"`
}

// --- CLOB API ---

// clobPriceResponse es la respuesta de GET /price.
type clobPriceResponse struct {
	Price string `json:"price"`
}
