package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
	"github.com/turtle-syndicate/bridge-settler/metrics"
	"github.com/turtle-syndicate/bridge-settler/models"
	"golang.org/x/time/rate"
)

type SolanaClient interface {
	GetSlot(ctx context.Context) (uint64, error)
	GetBlockHeight(ctx context.Context) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error)
	GetSignaturesForAddress(ctx context.Context, account solana.PublicKey, limit int) ([]SignatureInfo, error)
}

type solanaClient struct {
	rpc        *rpc.Client
	limiter    *rate.Limiter
	commitment rpc.CommitmentType
	timeout    time.Duration
}

var _ SolanaClient = &solanaClient{}

func (c *solanaClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	r := c.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.RPCRateLimitWaits.Inc()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

// call applies the limiter and the per-call timeout and records the outcome.
func (c *solanaClient) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := fn(ctx)
	metrics.RPCCallsTotal.WithLabelValues(method, callStatus(err)).Inc()
	if err != nil {
		log.WithField("method", method).WithError(err).Debug("[SOLANA] RPC call failed")
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, rpc.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func (c *solanaClient) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := c.call(ctx, "getSlot", func(ctx context.Context) (err error) {
		slot, err = c.rpc.GetSlot(ctx, c.commitment)
		return
	})
	return slot, err
}

func (c *solanaClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.call(ctx, "getBlockHeight", func(ctx context.Context) (err error) {
		height, err = c.rpc.GetBlockHeight(ctx, c.commitment)
		return
	})
	return height, err
}

func (c *solanaClient) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	var out *rpc.GetLatestBlockhashResult
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) (err error) {
		out, err = c.rpc.GetLatestBlockhash(ctx, c.commitment)
		return
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("getLatestBlockhash: empty result")
	}
	return &Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

func (c *solanaClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error) {
	var out *rpc.GetAccountInfoResult
	err := c.call(ctx, "getAccountInfo", func(ctx context.Context) (err error) {
		out, err = c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment,
		})
		return
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, ErrAccountNotFound
	}
	info := &AccountInfo{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
	}
	if out.Value.Data != nil {
		info.DataLen = len(out.Value.Data.GetBinary())
	}
	return info, nil
}

func (c *solanaClient) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var out *rpc.GetTokenAccountBalanceResult
	err := c.call(ctx, "getTokenAccountBalance", func(ctx context.Context) (err error) {
		out, err = c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
		return
	})
	if err != nil {
		return 0, err
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("getTokenAccountBalance: empty result")
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("getTokenAccountBalance: invalid amount %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}

// SendRawTransaction runs preflight at the client commitment so instruction
// errors such as insufficient funds surface before the transaction lands.
func (c *solanaClient) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	var signature solana.Signature
	err := c.call(ctx, "sendTransaction", func(ctx context.Context) (err error) {
		signature, err = c.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: c.commitment,
		})
		return
	})
	return signature, err
}

func (c *solanaClient) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error) {
	var out *rpc.GetSignatureStatusesResult
	err := c.call(ctx, "getSignatureStatuses", func(ctx context.Context) (err error) {
		out, err = c.rpc.GetSignatureStatuses(ctx, true, signature)
		return
	})
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	status := out.Value[0]
	return &SignatureStatus{
		Slot:               status.Slot,
		Err:                status.Err,
		ConfirmationStatus: string(status.ConfirmationStatus),
	}, nil
}

// GetSignaturesForAddress returns up to limit signatures, newest first.
func (c *solanaClient) GetSignaturesForAddress(ctx context.Context, account solana.PublicKey, limit int) ([]SignatureInfo, error) {
	var out []*rpc.TransactionSignature
	err := c.call(ctx, "getSignaturesForAddress", func(ctx context.Context) (err error) {
		out, err = c.rpc.GetSignaturesForAddressWithOpts(ctx, account, &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: c.commitment,
		})
		return
	})
	if err != nil {
		return nil, err
	}

	infos := make([]SignatureInfo, 0, len(out))
	for _, sig := range out {
		if sig == nil {
			continue
		}
		info := SignatureInfo{
			Signature: sig.Signature,
			Slot:      sig.Slot,
			Err:       sig.Err,
		}
		if sig.Memo != nil {
			info.Memo = *sig.Memo
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func NewClient(config models.SolanaConfig) (SolanaClient, error) {
	if config.RPCURL == "" {
		return nil, fmt.Errorf("solana rpc url is empty")
	}

	commitment := rpc.CommitmentType(config.Commitment)
	switch commitment {
	case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return nil, fmt.Errorf("unsupported commitment %q", config.Commitment)
	}

	var limiter *rate.Limiter
	if config.RPS > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RPS), burst)
	}

	return &solanaClient{
		rpc:        rpc.New(config.RPCURL),
		limiter:    limiter,
		commitment: commitment,
		timeout:    time.Duration(config.RPCTimeoutMillis) * time.Millisecond,
	}, nil
}
