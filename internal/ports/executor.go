package ports

import (
	"context"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// TradeExecutor executes real orders on the Polymarket CLOB.
type TradeExecutor interface {
	// Configured reports whether live trading is possible (private key
	// present). When false the bot must stay in paper mode.
	Configured() bool

	// ExecuteBet buys the requested token with a marketable limit order
	// and waits for the fill. Unfilled orders are cancelled after the
	// fill timeout and reported as an error.
	ExecuteBet(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error)

	// Balance returns the on-chain USDC.e balance of the trading wallet.
	Balance(ctx context.Context) (float64, error)
}
