package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// transferTopic is the event topic of Transfer(address,address,uint256),
// emitted by ERC-20 token contracts on every transfer.
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// Ethereum is a read-only ledger client over an EVM JSON-RPC endpoint.
// Every query carries a bounded timeout; "not found" is reported as
// models.ErrNotFound, anything else as a transport error.
type Ethereum struct {
	logger  *logger.Logger
	apiURL  string
	timeout time.Duration
	client  *ethclient.Client
}

// NewEthereum creates a new Ethereum ledger client. Connect must be called
// before issuing queries.
func NewEthereum(apiURL string, timeout time.Duration, logger *logger.Logger) *Ethereum {
	return &Ethereum{apiURL: apiURL, timeout: timeout, logger: logger}
}

// Connect dials the RPC endpoint.
func (e *Ethereum) Connect() error {
	client, err := ethclient.Dial(e.apiURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the RPC endpoint: %w", err)
	}
	e.client = client
	return nil
}

// Close releases the underlying RPC connection.
func (e *Ethereum) Close() error {
	if e.client != nil {
		e.client.Close()
	}
	return nil
}

// ReceiptByReference returns the typed receipt of the referenced transaction.
func (e *Ethereum) ReceiptByReference(ctx context.Context, reference string) (*models.PaymentReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	receipt, err := e.client.TransactionReceipt(ctx, common.HexToHash(reference))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	return &models.PaymentReceipt{
		Status:      receipt.Status,
		BlockNumber: receipt.BlockNumber,
	}, nil
}

// PaymentByReference resolves payer, recipient, token and amount of the
// referenced transaction. Token payments are decoded from the first ERC-20
// Transfer log in the receipt; transactions without one are treated as
// native value transfers.
func (e *Ethereum) PaymentByReference(ctx context.Context, reference string) (*models.PaymentDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	hash := common.HexToHash(reference)
	tx, pending, err := e.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if pending {
		// Not mined yet, so there is no receipt and no payment to verify.
		return nil, models.ErrNotFound
	}

	receipt, err := e.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	if transfer := firstTokenTransfer(receipt.Logs); transfer != nil {
		return transfer, nil
	}

	// Plain value transfer.
	sender, err := e.client.TransactionSender(ctx, tx, receipt.BlockHash, receipt.TransactionIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transaction sender: %w", err)
	}
	recipient := ""
	if tx.To() != nil {
		recipient = tx.To().Hex()
	}
	return &models.PaymentDetails{
		Payer:     sender.Hex(),
		Recipient: recipient,
		Token:     models.NativeToken,
		Amount:    tx.Value(),
	}, nil
}

// BlockTimestamp returns the unix timestamp of the block with the given
// number; nil means the latest block.
func (e *Ethereum) BlockTimestamp(ctx context.Context, number *big.Int) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	header, err := e.client.HeaderByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get block header: %w", err)
	}
	return header.Time, nil
}

// firstTokenTransfer extracts the first ERC-20 Transfer event from the
// receipt logs, if any.
func firstTokenTransfer(logs []*types.Log) *models.PaymentDetails {
	for _, entry := range logs {
		if len(entry.Topics) != 3 || entry.Topics[0] != transferTopic {
			continue
		}
		return &models.PaymentDetails{
			Payer:     common.BytesToAddress(entry.Topics[1].Bytes()).Hex(),
			Recipient: common.BytesToAddress(entry.Topics[2].Bytes()).Hex(),
			Token:     entry.Address.Hex(),
			Amount:    new(big.Int).SetBytes(entry.Data),
		}
	}
	return nil
}
