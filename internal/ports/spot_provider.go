package ports

import "context"

// SpotProvider obtiene el precio spot de BTC para calibrar el modelo
// de vol en cada ciclo de scan.
type SpotProvider interface {
	FetchBTCSpot(ctx context.Context) (float64, error)
}
