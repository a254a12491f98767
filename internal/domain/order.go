package domain

// OrderRequest es la orden de compra que el bot manda al ejecutor.
// Siempre se compra el token del lado elegido: YES token para apostar
// YES, NO token para apostar NO.
type OrderRequest struct {
	TokenID       string  // token ID del CLOB para el lado elegido
	Side          string  // "YES" | "NO", solo informativo
	SizeUSD       float64 // USDC a gastar
	ExpectedPrice float64 // precio de referencia del scan, para control de slippage
}

// ExecutionResult es el fill confirmado de una orden.
type ExecutionResult struct {
	OrderID      string
	FilledShares float64
	FilledPrice  float64
	CostUSD      float64
}

// Resolution es la respuesta de la consulta de resolución de un mercado.
type Resolution struct {
	Resolved bool
	Outcome  string // "YES" | "NO" cuando Resolved
}
