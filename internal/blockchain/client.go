// internal/blockchain/client.go
package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrReceiptNotFound means the transaction is not (yet) known to the chain.
// Callers treat it as retryable; any other error from Receipt is a transient
// node problem and equally retryable.
var ErrReceiptNotFound = errors.New("transaction receipt not found")

// Receipt is the attestation the settlement engine acts on. Confirmed=false
// means the transaction was mined but reverted, which is terminal.
type Receipt struct {
	Confirmed   bool
	BlockNumber uint64
}

type Client interface {
	Receipt(ctx context.Context, txHash string) (*Receipt, error)
}

// RPCClient attests transactions against an Ethereum JSON-RPC endpoint.
type RPCClient struct {
	eth *ethclient.Client
}

func Dial(rpcURL string) (*RPCClient, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc endpoint %q: %w", rpcURL, err)
	}
	return &RPCClient{eth: eth}, nil
}

func (c *RPCClient) Receipt(ctx context.Context, txHash string) (*Receipt, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("fetch receipt for %s: %w", txHash, err)
	}

	return &Receipt{
		Confirmed:   receipt.Status == types.ReceiptStatusSuccessful,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

func (c *RPCClient) Close() {
	c.eth.Close()
}
