package polymarket

// executor.go — ejecución real de apuestas en el CLOB de Polymarket.
//
// Flujo por apuesta:
//   1. cotizar el precio BUY live del token (fallback: precio del scanner)
//   2. abortar si el precio se movió más del slippage máximo
//   3. limit marketable: comprar a min(0.99, live*1.01), GTC
//   4. poll del fill hasta confirmar; si no llena a tiempo, cancelar

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gomodel "github.com/polymarket/go-order-utils/pkg/model"

	"github.com/mvaldesr/polyedge/internal/adapters/onchain"
	"github.com/mvaldesr/polyedge/internal/domain"
)

const (
	// Slippage máximo aceptado entre el precio del scanner y el live.
	maxSlippage = 0.03

	// Buffer sobre el best ask para mejorar el fill rate.
	priceBuffer = 1.01

	// El CLOB no acepta órdenes de menos de una share.
	minShares = 1.0

	fillTimeout  = 30 * time.Second
	fillPollWait = 3 * time.Second
)

// --- CLOB order DTOs ---

type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	ID       string `json:"id"`
	AltID    string `json:"order_id"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
}

type clobOpenOrder struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	SizeMatched string `json:"size_matched"`
}

type clobOrdersResponse struct {
	Data       []clobOpenOrder `json:"data"`
	NextCursor string          `json:"next_cursor"`
}

type clobNegRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}

// Executor implementa ports.TradeExecutor contra el CLOB real.
type Executor struct {
	auth   *AuthClient
	wallet *onchain.Wallet
}

// NewExecutor crea un Executor. rpcURL es el nodo Polygon para leer el
// balance USDC on-chain.
func NewExecutor(auth *AuthClient, rpcURL string) (*Executor, error) {
	wallet, err := onchain.NewWallet(rpcURL, auth.Address())
	if err != nil {
		return nil, err
	}
	return &Executor{auth: auth, wallet: wallet}, nil
}

// Configured indica si el executor puede operar de verdad.
func (e *Executor) Configured() bool {
	return e != nil && e.auth != nil
}

// ExecuteBet compra el token indicado gastando req.SizeUSD.
// Los fallos operativos (slippage, orden mínima, fill timeout) vuelven
// como error con la razón lista para alertar.
func (e *Executor) ExecuteBet(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if !e.Configured() {
		return domain.ExecutionResult{}, fmt.Errorf("executor not configured: missing private key")
	}
	if err := e.auth.EnsureCreds(ctx); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("executor.ExecuteBet: creds: %w", err)
	}

	ref := uuid.New().String()[:8]

	livePrice, err := e.fetchBuyPrice(ctx, req.TokenID)
	if err != nil {
		livePrice = req.ExpectedPrice
		slog.Warn("could not get CLOB price, using scanner price",
			"ref", ref, "price", fmt.Sprintf("%.3f", livePrice), "err", err)
	}

	priceDiff := math.Abs(livePrice - req.ExpectedPrice)
	if priceDiff > maxSlippage {
		return domain.ExecutionResult{}, fmt.Errorf(
			"Price slipped: expected %.3f, got %.3f (diff %.1f%% > max %.1f%%)",
			req.ExpectedPrice, livePrice, priceDiff*100, maxSlippage*100)
	}

	buyPrice := math.Min(0.99, math.Round(livePrice*priceBuffer*10000)/10000)
	shares := math.Round(req.SizeUSD/buyPrice*100) / 100
	if shares < minShares {
		return domain.ExecutionResult{}, fmt.Errorf(
			"Order too small: $%.2f / %.3f = %.2f shares (min 1)",
			req.SizeUSD, buyPrice, shares)
	}

	slog.Info("placing order",
		"ref", ref,
		"side", req.Side,
		"shares", fmt.Sprintf("%.2f", shares),
		"price", fmt.Sprintf("%.4f", buyPrice),
		"cost", fmt.Sprintf("$%.2f", shares*buyPrice),
		"token", truncateToken(req.TokenID),
	)

	orderID, err := e.placeOrder(ctx, req.TokenID, buyPrice, shares)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	slog.Info("order placed", "ref", ref, "order_id", orderID)

	if !e.waitForFill(ctx, orderID) {
		e.cancelOrder(ctx, orderID)
		return domain.ExecutionResult{}, fmt.Errorf(
			"Order %s unfilled after %ds, cancelled", orderID, int(fillTimeout.Seconds()))
	}

	cost := shares * buyPrice
	slog.Info("order filled",
		"ref", ref,
		"shares", fmt.Sprintf("%.2f", shares),
		"price", fmt.Sprintf("%.4f", buyPrice),
		"cost", fmt.Sprintf("$%.2f", cost),
	)

	return domain.ExecutionResult{
		OrderID:      orderID,
		FilledShares: shares,
		FilledPrice:  buyPrice,
		CostUSD:      cost,
	}, nil
}

// Balance devuelve el balance USDC.e on-chain de la wallet.
func (e *Executor) Balance(ctx context.Context) (float64, error) {
	return e.wallet.USDCBalance(ctx)
}

// fetchBuyPrice cotiza el mejor precio de compra live para un token.
func (e *Executor) fetchBuyPrice(ctx context.Context, tokenID string) (float64, error) {
	url := fmt.Sprintf("%s/price?token_id=%s&side=BUY", e.auth.clobBase, tokenID)

	var resp clobPriceResponse
	if err := e.auth.get(ctx, e.auth.clobLimiter, url, &resp); err != nil {
		return 0, err
	}
	p, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil || p <= 0 {
		return 0, fmt.Errorf("invalid price %q", resp.Price)
	}
	return p, nil
}

// placeOrder firma y postea una orden BUY GTC; devuelve el order ID.
func (e *Executor) placeOrder(ctx context.Context, tokenID string, price, shares float64) (string, error) {
	negRisk, err := e.isNegRisk(ctx, tokenID)
	if err != nil {
		slog.Debug("neg-risk check failed, assuming standard exchange", "err", err)
	}

	signed, err := e.auth.buildSignedBuyOrder(tokenID, price, shares, negRisk)
	if err != nil {
		return "", fmt.Errorf("executor.placeOrder: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       tokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     e.auth.creds.APIKey,
		OrderType: "GTC",
	}

	var resp clobOrderResponse
	if err := e.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return "", fmt.Errorf("executor.placeOrder: post: %w", err)
	}
	if !resp.Success || resp.ErrorMsg != "" {
		return "", fmt.Errorf("executor.placeOrder: clob error: %s", resp.ErrorMsg)
	}

	orderID := resp.OrderID
	if orderID == "" {
		orderID = resp.ID
	}
	if orderID == "" {
		orderID = resp.AltID
	}
	if orderID == "" {
		return "", fmt.Errorf("No order ID in response (status %s)", resp.Status)
	}
	return orderID, nil
}

// waitForFill hace poll del estado de la orden hasta que llene, la
// rechacen o venza el timeout. Una orden que desaparece del libro de
// órdenes abiertas se considera llenada.
func (e *Executor) waitForFill(ctx context.Context, orderID string) bool {
	deadline := time.Now().Add(fillTimeout)
	for time.Now().Before(deadline) {
		order, found, err := e.findOpenOrder(ctx, orderID)
		switch {
		case err != nil:
			slog.Debug("fill check error", "err", err)
		case !found:
			return true
		default:
			switch strings.ToLower(order.Status) {
			case "matched", "filled", "completed":
				return true
			case "cancelled", "canceled", "rejected":
				return false
			}
			slog.Debug("order still open",
				"order_id", orderID,
				"status", order.Status,
				"matched", order.SizeMatched,
			)
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(fillPollWait):
		}
	}
	return false
}

// findOpenOrder busca la orden en el libro de órdenes abiertas de la wallet.
func (e *Executor) findOpenOrder(ctx context.Context, orderID string) (clobOpenOrder, bool, error) {
	var resp clobOrdersResponse
	if err := e.auth.doL2(ctx, http.MethodGet, "/orders", nil, &resp); err != nil {
		return clobOpenOrder{}, false, err
	}
	for _, o := range resp.Data {
		if o.ID == orderID {
			return o, true, nil
		}
	}
	return clobOpenOrder{}, false, nil
}

// cancelOrder cancela una orden abierta. El fallo solo se loguea: la
// orden vencerá igualmente como GTC sin contraparte.
func (e *Executor) cancelOrder(ctx context.Context, orderID string) {
	if err := e.auth.doL2(ctx, http.MethodDelete, "/order/"+orderID, nil, nil); err != nil {
		slog.Warn("cancel failed", "order_id", orderID, "err", err)
		return
	}
	slog.Info("cancelled order", "order_id", orderID)
}

// isNegRisk consulta si el token opera en el exchange NegRisk.
func (e *Executor) isNegRisk(ctx context.Context, tokenID string) (bool, error) {
	url := fmt.Sprintf("%s/neg-risk?token_id=%s", e.auth.clobBase, tokenID)

	var resp clobNegRiskResponse
	if err := e.auth.get(ctx, e.auth.clobLimiter, url, &resp); err != nil {
		return false, fmt.Errorf("neg-risk check: %w", err)
	}
	return resp.NegRisk, nil
}

// buildSignedBuyOrder crea una orden BUY firmada EIP-712.
// Usa aritmética entera para evitar errores de precisión float que el
// CLOB rechaza: la API verifica makerAmount == price * takerAmount exacto.
func (ac *AuthClient) buildSignedBuyOrder(tokenID string, price, shares float64, negRisk bool) (*gomodel.SignedOrder, error) {
	pricePrecision := detectPricePrecision(price)
	priceInt := int64(math.Round(price * float64(pricePrecision)))
	sharesCents := int64(math.Round(shares * 100))

	amountFactor := int64(1_000_000) / (100 * pricePrecision)
	makerAmount := sharesCents * priceInt * amountFactor
	takerAmount := sharesCents * 10000

	if makerAmount <= 0 || takerAmount <= 0 {
		return nil, fmt.Errorf("invalid amounts: maker=%d taker=%d (price=%.4f shares=%.2f)", makerAmount, takerAmount, price, shares)
	}

	verifyingContract := gomodel.CTFExchange
	if negRisk {
		verifyingContract = gomodel.NegRiskCTFExchange
	}

	orderData := &gomodel.OrderData{
		Maker:         ac.address.Hex(),
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   strconv.FormatInt(makerAmount, 10),
		TakerAmount:   strconv.FormatInt(takerAmount, 10),
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        ac.address.Hex(),
		Expiration:    "0",
		Side:          gomodel.BUY,
		SignatureType: gomodel.EOA,
	}

	signed, err := ac.orderBuilder.BuildSignedOrder(ac.privateKey, orderData, verifyingContract)
	if err != nil {
		return nil, fmt.Errorf("build signed order: %w", err)
	}
	return signed, nil
}

// detectPricePrecision devuelve el multiplicador del tick size del precio.
// e.g. price=0.60 → 100 (tick 0.01), price=0.673 → 1000 (tick 0.001).
func detectPricePrecision(price float64) int64 {
	for _, prec := range []int64{100, 1000, 10000} {
		rounded := math.Round(price * float64(prec))
		if math.Abs(rounded/float64(prec)-price) < 1e-10 {
			return prec
		}
	}
	return 100
}

// truncateToken acorta un token ID para logs.
func truncateToken(tokenID string) string {
	if len(tokenID) <= 16 {
		return tokenID
	}
	return tokenID[:16] + "..."
}
