package onchain

// wallet.go — on-chain reads for the trading wallet on Polygon.
//
// The CLOB settles in USDC.e (bridged USDC, 6 decimals), so the live
// bankroll check reads the ERC20 balance straight from the chain instead
// of trusting any API-side cache.

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// USDC.e collateral on Polygon
const usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
}

// Wallet reads on-chain state for a trading address via a Polygon RPC node.
type Wallet struct {
	client  *ethclient.Client
	address common.Address
}

// NewWallet connects to the given Polygon RPC. addressHex is the trading
// wallet address (0x-prefixed).
func NewWallet(rpcURL, addressHex string) (*Wallet, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain: dial rpc %s: %w", rpcURL, err)
	}
	return &Wallet{
		client:  client,
		address: common.HexToAddress(addressHex),
	}, nil
}

// USDCBalance returns the wallet's USDC.e balance in dollars.
func (w *Wallet) USDCBalance(ctx context.Context) (float64, error) {
	callData, err := erc20ABI.Pack("balanceOf", w.address)
	if err != nil {
		return 0, fmt.Errorf("onchain: pack balanceOf: %w", err)
	}

	token := common.HexToAddress(usdcEAddress)
	result, err := w.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("onchain: balanceOf call: %w", err)
	}

	vals, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("onchain: unpack balanceOf: %w", err)
	}

	raw := vals[0].(*big.Int)
	bal, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return bal, nil
}
