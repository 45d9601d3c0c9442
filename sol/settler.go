package sol

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/turtle-syndicate/bridge-settler/app"
	"github.com/turtle-syndicate/bridge-settler/common"
	"github.com/turtle-syndicate/bridge-settler/metrics"
	"github.com/turtle-syndicate/bridge-settler/models"
	solclient "github.com/turtle-syndicate/bridge-settler/sol/client"
	"github.com/turtle-syndicate/bridge-settler/sol/util"
)

const (
	BridgeSettlerName = "BRIDGE SETTLER"
)

type Outcome string

const (
	OutcomeSettled  Outcome = "settled"
	OutcomeFailed   Outcome = "failed"
	OutcomeDeferred Outcome = "deferred"
	OutcomeSkipped  Outcome = "skipped"
)

var (
	ErrAuthorityTokenAccount = errors.New("authority token account unavailable")
	ErrTransactionFailed     = errors.New("transaction failed on chain")

	ErrInsufficientAuthorityBalance = errors.New("insufficient authority balance")

	errRequestNotPending   = errors.New("request is no longer pending")
	errBlockhashExpired    = errors.New("blockhash expired before confirmation")
	errConfirmationTimeout = errors.New("confirmation timed out")
)

// RunResult summarises one pass over the pending set.
type RunResult struct {
	RunId    string
	Skipped  bool
	TimedOut bool
	Pending  int
	Settled  int
	Failed   int
	Deferred int
}

func (r *RunResult) count(outcome Outcome) {
	switch outcome {
	case OutcomeSettled:
		r.Settled++
	case OutcomeFailed:
		r.Failed++
	case OutcomeDeferred:
		r.Deferred++
	}
}

type BridgeSettlerRunner struct {
	client     solclient.SolanaClient
	signer     common.Signer
	mint       solana.PublicKey
	network    string
	collection string

	maxDuration        time.Duration
	leaseTTL           time.Duration
	maxRequestAttempts int64
	confirmTimeout     time.Duration
	confirmPoll        time.Duration
	historyScanLimit   int
	retry              util.RetryPolicy

	sleepFn func(ctx context.Context, d time.Duration) error

	authorityTokenAccount solana.PublicKey
	authorityBalance      uint64

	runMu    sync.Mutex
	statusMu sync.RWMutex
	status   models.RunnerStatus
}

func (x *BridgeSettlerRunner) Run() {
	if _, err := x.RunOnce(context.Background()); err != nil {
		log.WithError(err).Error("[BRIDGE SETTLER] Run failed")
	}
}

func (x *BridgeSettlerRunner) Status() models.RunnerStatus {
	x.statusMu.RLock()
	defer x.statusMu.RUnlock()
	return x.status
}

func (x *BridgeSettlerRunner) leaseResource() string {
	return "bridge-settlement/" + x.network + "/" + x.mint.String()
}

// RunOnce settles the pending set under the run lease. A run that finds the
// lease taken is skipped without error. Errors are batch-fatal.
func (x *BridgeSettlerRunner) RunOnce(ctx context.Context) (*RunResult, error) {
	result := &RunResult{RunId: uuid.NewString()}
	logger := log.WithField("run_id", result.RunId).WithField("network", x.network)

	if !x.runMu.TryLock() {
		logger.Info("[BRIDGE SETTLER] Run already in progress, skipping")
		result.Skipped = true
		metrics.RunsTotal.WithLabelValues(x.network, "skipped").Inc()
		return result, nil
	}
	defer x.runMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RunDuration.WithLabelValues(x.network).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, x.maxDuration)
	defer cancel()

	if purged, err := app.DB.PurgeExpiredLocks(); err != nil {
		logger.WithError(err).Warn("[BRIDGE SETTLER] Error purging expired leases")
	} else if purged > 0 {
		logger.Debug("[BRIDGE SETTLER] Purged expired leases: ", purged)
	}

	lockId, err := app.DB.XLock(x.leaseResource(), x.leaseTTL)
	if errors.Is(err, app.ErrLeaseHeld) {
		logger.Info("[BRIDGE SETTLER] Lease held by another run, skipping")
		result.Skipped = true
		metrics.RunsTotal.WithLabelValues(x.network, "skipped").Inc()
		return result, nil
	}
	if err != nil {
		metrics.RunsTotal.WithLabelValues(x.network, "error").Inc()
		return result, fmt.Errorf("error acquiring lease: %w", err)
	}
	defer func() {
		if err := app.DB.Unlock(lockId); err != nil {
			logger.WithError(err).Warn("[BRIDGE SETTLER] Error releasing lease")
		}
	}()

	err = x.settlePending(ctx, result, logger)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(x.network, "error").Inc()
		x.updateStatus(result, err)
		return result, err
	}

	metrics.RunsTotal.WithLabelValues(x.network, "ok").Inc()
	x.updateStatus(result, nil)
	return result, nil
}

func (x *BridgeSettlerRunner) settlePending(ctx context.Context, result *RunResult, logger *log.Entry) error {
	requests, err := x.FindPendingRequests()
	if err != nil {
		return fmt.Errorf("error fetching pending requests: %w", err)
	}
	result.Pending = len(requests)
	metrics.PendingRequests.WithLabelValues(x.network).Set(float64(len(requests)))

	if len(requests) == 0 {
		logger.Info("[BRIDGE SETTLER] No pending requests")
		return nil
	}
	logger.Info("[BRIDGE SETTLER] Found pending requests: ", len(requests))

	if err := x.resolveAuthorityTokenAccount(ctx); err != nil {
		return err
	}
	x.UpdateSlot(ctx)

	for i := range requests {
		if ctx.Err() != nil {
			remaining := len(requests) - i
			logger.Warn("[BRIDGE SETTLER] Run deadline reached, deferring remaining requests: ", remaining)
			result.TimedOut = true
			result.Deferred += remaining
			metrics.RequestOutcomes.WithLabelValues(x.network, string(OutcomeDeferred)).Add(float64(remaining))
			break
		}
		var outcome Outcome
		if requests[i].DecodeErr != nil {
			outcome = x.failMalformed(requests[i], logger)
		} else {
			outcome = x.HandleRequest(ctx, &requests[i].Request)
		}
		metrics.RequestOutcomes.WithLabelValues(x.network, string(outcome)).Inc()
		result.count(outcome)
	}

	logger.WithFields(log.Fields{
		"settled":  result.Settled,
		"failed":   result.Failed,
		"deferred": result.Deferred,
	}).Info("[BRIDGE SETTLER] Processed pending requests")
	return nil
}

// PendingRequest is one pending document. DecodeErr is set when the
// document does not fit models.BridgeRequest; only Request.Id is then usable.
type PendingRequest struct {
	Request   models.BridgeRequest
	DecodeErr error
}

// FindPendingRequests returns unsettled, non-failed requests oldest first.
// Documents are decoded one at a time so a malformed one stays isolated.
func (x *BridgeSettlerRunner) FindPendingRequests() ([]PendingRequest, error) {
	filter := bson.M{
		"done":   false,
		"status": bson.M{"$ne": models.BridgeStatusFailed},
	}
	var docs []bson.Raw
	if err := app.DB.FindMany(x.collection, filter, &docs); err != nil {
		return nil, err
	}

	requests := make([]PendingRequest, len(docs))
	for i, doc := range docs {
		if err := bson.Unmarshal(doc, &requests[i].Request); err != nil {
			requests[i] = PendingRequest{DecodeErr: err}
			if id, ok := doc.Lookup("_id").ObjectIDOK(); ok {
				requests[i].Request.Id = &id
			}
		}
	}
	return requests, nil
}

func (x *BridgeSettlerRunner) failMalformed(pending PendingRequest, logger *log.Entry) Outcome {
	if pending.Request.Id == nil {
		logger.WithError(pending.DecodeErr).Error("[BRIDGE SETTLER] Skipping undecodable request without an id")
		return OutcomeSkipped
	}
	logger = logger.WithField("request_id", pending.Request.Id.Hex())
	logger.WithError(pending.DecodeErr).Warn("[BRIDGE SETTLER] Malformed request")
	return x.failOrDefer(&pending.Request, "malformed request: "+pending.DecodeErr.Error(), logger)
}

func (x *BridgeSettlerRunner) resolveAuthorityTokenAccount(ctx context.Context) error {
	ata, _, err := solana.FindAssociatedTokenAddress(x.signer.PublicKey(), x.mint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthorityTokenAccount, err)
	}

	var info *solclient.AccountInfo
	err = x.retry.Do(ctx, func(ctx context.Context) (err error) {
		info, err = x.client.GetAccountInfo(ctx, ata)
		if errors.Is(err, solclient.ErrAccountNotFound) {
			return util.Terminal(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAuthorityTokenAccount, ata, err)
	}
	if !info.Owner.Equals(solana.TokenProgramID) {
		return fmt.Errorf("%w: %s is owned by %s", ErrAuthorityTokenAccount, ata, info.Owner)
	}

	var balance uint64
	err = x.retry.Do(ctx, func(ctx context.Context) (err error) {
		balance, err = x.client.GetTokenAccountBalance(ctx, ata)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %s: error getting balance: %w", ErrAuthorityTokenAccount, ata, err)
	}

	x.authorityTokenAccount = ata
	x.authorityBalance = balance
	return nil
}

// HandleRequest drives one request as far as it can go in this run.
func (x *BridgeSettlerRunner) HandleRequest(ctx context.Context, req *models.BridgeRequest) Outcome {
	logger := log.WithFields(log.Fields{
		"request_id":     req.Id.Hex(),
		"source_tx_hash": req.SourceTxHash,
		"dest_address":   req.DestAddress,
		"section":        "handle-request",
	})
	logger.Debug("[BRIDGE SETTLER] Handling request")

	owner, err := util.ParseDestination(req.DestAddress)
	if err != nil {
		logger.WithError(err).Warn("[BRIDGE SETTLER] Invalid destination")
		return x.failOrDefer(req, err.Error(), logger)
	}
	if req.DestAmount == 0 {
		logger.Warn("[BRIDGE SETTLER] Zero destination amount")
		return x.failOrDefer(req, "destination amount is zero", logger)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = util.IdempotencyKey(req.Id.Hex(), req.SourceTxHash)
	}

	err = x.retry.Do(ctx, func(ctx context.Context) error {
		return x.settle(ctx, req, owner, key, logger)
	})

	switch {
	case err == nil:
		logger.WithField("dest_tx_hash", *req.DestTxHash).Info("[BRIDGE SETTLER] Request settled")
		return OutcomeSettled
	case errors.Is(err, errRequestNotPending):
		logger.Info("[BRIDGE SETTLER] Request settled elsewhere, skipping")
		return OutcomeSkipped
	case ctx.Err() != nil:
		logger.Warn("[BRIDGE SETTLER] Run deadline reached, deferring request")
		return OutcomeDeferred
	case errors.Is(err, util.ErrRetriesExhausted):
		logger.WithError(err).Warn("[BRIDGE SETTLER] Retries exhausted for this run")
		return x.deferRequest(req, err, logger)
	default:
		logger.WithError(err).Error("[BRIDGE SETTLER] Request failed")
		return x.failOrDefer(req, err.Error(), logger)
	}
}

// settle may run several times for one request within a run; every pass
// starts from the attempt marker persisted by the previous one.
func (x *BridgeSettlerRunner) settle(ctx context.Context, req *models.BridgeRequest, owner solana.PublicKey, key string, logger *log.Entry) error {
	if req.HasPendingAttempt() {
		signature, landed, err := x.recoverAttempt(ctx, req, key, logger)
		if err != nil {
			return err
		}
		if landed {
			return x.markSettled(req, signature)
		}
		logger.Info("[BRIDGE SETTLER] Previous attempt expired without landing, building a new one")
	}

	if req.DestAmount > x.authorityBalance {
		return util.Terminal(fmt.Errorf("%w: need %d, have %d", ErrInsufficientAuthorityBalance, req.DestAmount, x.authorityBalance))
	}

	destination, err := x.resolveTokenAccount(ctx, owner, logger)
	if err != nil {
		return err
	}

	blockhash, err := x.client.GetLatestBlockhash(ctx)
	if err != nil {
		return err
	}

	instructions := []solana.Instruction{
		util.TransferInstruction(x.authorityTokenAccount, destination, x.signer.PublicKey(), req.DestAmount),
		util.MemoInstruction(x.signer.PublicKey(), key),
	}
	raw, signature, err := util.BuildSignedTransaction(x.signer, instructions, blockhash.Hash)
	if err != nil {
		return err
	}

	if err := x.persistAttempt(req, key, signature, raw, blockhash.LastValidBlockHeight); err != nil {
		return err
	}
	logger.WithField("signature", signature.String()).Debug("[BRIDGE SETTLER] Submitting transfer")

	if _, err := x.client.SendRawTransaction(ctx, raw); err != nil {
		if util.IsPreflightRejection(err) {
			x.clearAttempt(req, logger)
		}
		return err
	}

	if err := x.awaitConfirmation(ctx, signature, blockhash.LastValidBlockHeight); err != nil {
		return err
	}
	if err := x.markSettled(req, signature); err != nil {
		return err
	}
	x.authorityBalance -= req.DestAmount
	return nil
}

// recoverAttempt reports whether the persisted attempt landed. It returns
// false only when the attempt can no longer land.
func (x *BridgeSettlerRunner) recoverAttempt(ctx context.Context, req *models.BridgeRequest, key string, logger *log.Entry) (solana.Signature, bool, error) {
	signature, err := solana.SignatureFromBase58(req.PendingTxHash)
	if err != nil {
		return solana.Signature{}, false, util.Terminal(fmt.Errorf("invalid pending signature %q: %w", req.PendingTxHash, err))
	}
	logger = logger.WithField("signature", req.PendingTxHash)

	status, err := x.client.GetSignatureStatus(ctx, signature)
	if err != nil {
		return solana.Signature{}, false, err
	}
	if status != nil {
		logger.Info("[BRIDGE SETTLER] Found previous attempt on chain")
		if !status.Succeeded() {
			return solana.Signature{}, false, util.Terminal(fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, status.Err))
		}
		if !status.Committed() {
			if err := x.awaitConfirmation(ctx, signature, req.LastValidBlockHeight); err != nil {
				return solana.Signature{}, false, err
			}
		}
		metrics.RecoveredAttempts.WithLabelValues(x.network, "status").Inc()
		return signature, true, nil
	}

	height, err := x.client.GetBlockHeight(ctx)
	if err != nil {
		return solana.Signature{}, false, err
	}

	if height <= req.LastValidBlockHeight {
		raw, err := base64.StdEncoding.DecodeString(req.PendingRawTx)
		if err != nil {
			return solana.Signature{}, false, util.Terminal(fmt.Errorf("invalid pending transaction: %w", err))
		}
		logger.Info("[BRIDGE SETTLER] Rebroadcasting previous attempt")
		if _, err := x.client.SendRawTransaction(ctx, raw); err != nil && !isAlreadyProcessed(err) {
			return solana.Signature{}, false, err
		}
		if err := x.awaitConfirmation(ctx, signature, req.LastValidBlockHeight); err != nil {
			return solana.Signature{}, false, err
		}
		return signature, true, nil
	}

	found, ok, err := x.findTransferByMemo(ctx, key)
	if err != nil {
		return solana.Signature{}, false, err
	}
	if ok {
		logger.WithField("memo_signature", found.String()).Info("[BRIDGE SETTLER] Found transfer by memo")
		metrics.RecoveredAttempts.WithLabelValues(x.network, "memo").Inc()
		return found, true, nil
	}
	return solana.Signature{}, false, nil
}

// a rebroadcast of a landed transaction fails preflight with this message
func isAlreadyProcessed(err error) bool {
	message := err.Error()
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		message = rpcErr.Message
	}
	return strings.Contains(strings.ToLower(message), "already been processed")
}

func (x *BridgeSettlerRunner) findTransferByMemo(ctx context.Context, key string) (solana.Signature, bool, error) {
	signatures, err := x.client.GetSignaturesForAddress(ctx, x.authorityTokenAccount, x.historyScanLimit)
	if err != nil {
		return solana.Signature{}, false, err
	}
	for _, sig := range signatures {
		if sig.Err == nil && util.MemoContains(sig.Memo, key) {
			return sig.Signature, true, nil
		}
	}
	return solana.Signature{}, false, nil
}

// resolveTokenAccount returns the destination associated token account,
// creating it first when it does not exist.
func (x *BridgeSettlerRunner) resolveTokenAccount(ctx context.Context, owner solana.PublicKey, logger *log.Entry) (solana.PublicKey, error) {
	instruction, ata, err := util.CreateAssociatedTokenAccountIdempotentInstruction(x.signer.PublicKey(), owner, x.mint)
	if err != nil {
		return solana.PublicKey{}, util.Terminal(fmt.Errorf("error deriving token account: %w", err))
	}

	info, err := x.client.GetAccountInfo(ctx, ata)
	if err == nil {
		if !info.Owner.Equals(solana.TokenProgramID) {
			return solana.PublicKey{}, util.Terminal(fmt.Errorf("invalid account %s: owned by %s", ata, info.Owner))
		}
		return ata, nil
	}
	if !errors.Is(err, solclient.ErrAccountNotFound) {
		return solana.PublicKey{}, err
	}

	logger.WithField("token_account", ata.String()).Info("[BRIDGE SETTLER] Creating destination token account")
	blockhash, err := x.client.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	raw, signature, err := util.BuildSignedTransaction(x.signer, []solana.Instruction{instruction}, blockhash.Hash)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, err := x.client.SendRawTransaction(ctx, raw); err != nil {
		return solana.PublicKey{}, err
	}
	if err := x.awaitConfirmation(ctx, signature, blockhash.LastValidBlockHeight); err != nil {
		return solana.PublicKey{}, err
	}
	return ata, nil
}

func (x *BridgeSettlerRunner) awaitConfirmation(ctx context.Context, signature solana.Signature, lastValidBlockHeight uint64) error {
	deadline := time.Now().Add(x.confirmTimeout)
	for {
		status, err := x.client.GetSignatureStatus(ctx, signature)
		if err != nil {
			return err
		}
		if status != nil {
			if !status.Succeeded() {
				return util.Terminal(fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, status.Err))
			}
			if status.Committed() {
				return nil
			}
		} else {
			height, err := x.client.GetBlockHeight(ctx)
			if err != nil {
				return err
			}
			if height > lastValidBlockHeight {
				return util.Transient(fmt.Errorf("%w: %s", errBlockhashExpired, signature))
			}
		}

		if time.Now().After(deadline) {
			return util.Transient(fmt.Errorf("%w: %s", errConfirmationTimeout, signature))
		}
		if err := x.sleep(ctx, x.confirmPoll); err != nil {
			return err
		}
	}
}

func (x *BridgeSettlerRunner) sleep(ctx context.Context, d time.Duration) error {
	if x.sleepFn != nil {
		return x.sleepFn(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persistAttempt records the signed transfer before it is broadcast so a
// crash between send and settle is recoverable.
func (x *BridgeSettlerRunner) persistAttempt(req *models.BridgeRequest, key string, signature solana.Signature, raw []byte, lastValidBlockHeight uint64) error {
	filter := bson.M{
		"_id":  req.Id,
		"done": false,
	}
	now := time.Now()
	encoded := base64.StdEncoding.EncodeToString(raw)
	update := bson.M{
		"$set": bson.M{
			"status":                  models.BridgeStatusSubmitting,
			"idempotency_key":         key,
			"pending_tx_hash":         signature.String(),
			"pending_raw_tx":          encoded,
			"last_valid_block_height": lastValidBlockHeight,
			"updated_at":              now,
		},
	}

	matched, err := app.DB.UpdateOne(x.collection, filter, update)
	if err != nil {
		return util.Transient(fmt.Errorf("error persisting attempt: %w", err))
	}
	if matched == 0 {
		return util.Terminal(errRequestNotPending)
	}

	req.Status = models.BridgeStatusSubmitting
	req.IdempotencyKey = key
	req.PendingTxHash = signature.String()
	req.PendingRawTx = encoded
	req.LastValidBlockHeight = lastValidBlockHeight
	req.UpdatedAt = now
	return nil
}

// clearAttempt drops an attempt that never left the RPC node, so the next
// pass builds with a fresh blockhash instead of rebroadcasting it.
func (x *BridgeSettlerRunner) clearAttempt(req *models.BridgeRequest, logger *log.Entry) {
	filter := bson.M{
		"_id":  req.Id,
		"done": false,
	}
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":     models.BridgeStatusPending,
			"updated_at": now,
		},
		"$unset": bson.M{
			"pending_tx_hash":         "",
			"pending_raw_tx":          "",
			"last_valid_block_height": "",
		},
	}

	if _, err := app.DB.UpdateOne(x.collection, filter, update); err != nil {
		logger.WithError(err).Warn("[BRIDGE SETTLER] Error clearing rejected attempt")
		return
	}
	req.Status = models.BridgeStatusPending
	req.PendingTxHash = ""
	req.PendingRawTx = ""
	req.LastValidBlockHeight = 0
	req.UpdatedAt = now
}

func (x *BridgeSettlerRunner) markSettled(req *models.BridgeRequest, signature solana.Signature) error {
	filter := bson.M{
		"_id":  req.Id,
		"done": false,
	}
	now := time.Now()
	destTxHash := signature.String()
	update := bson.M{
		"$set": bson.M{
			"done":         true,
			"dest_tx_hash": destTxHash,
			"status":       models.BridgeStatusSettled,
			"settled_at":   now,
			"updated_at":   now,
		},
		"$unset": bson.M{
			"pending_raw_tx": "",
		},
	}

	matched, err := app.DB.UpdateOne(x.collection, filter, update)
	if err != nil {
		return util.Transient(fmt.Errorf("error marking request settled: %w", err))
	}
	if matched == 0 {
		return util.Terminal(errRequestNotPending)
	}

	req.Done = true
	req.DestTxHash = &destTxHash
	req.Status = models.BridgeStatusSettled
	req.SettledAt = &now
	req.UpdatedAt = now
	return nil
}

func (x *BridgeSettlerRunner) failOrDefer(req *models.BridgeRequest, reason string, logger *log.Entry) Outcome {
	if err := x.markFailed(req, reason); err != nil {
		logger.WithError(err).Error("[BRIDGE SETTLER] Error marking request failed")
		return OutcomeDeferred
	}
	return OutcomeFailed
}

func (x *BridgeSettlerRunner) markFailed(req *models.BridgeRequest, reason string) error {
	filter := bson.M{
		"_id":  req.Id,
		"done": false,
	}
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":         models.BridgeStatusFailed,
			"failure_reason": reason,
			"updated_at":     now,
		},
	}

	if _, err := app.DB.UpdateOne(x.collection, filter, update); err != nil {
		return err
	}
	req.Status = models.BridgeStatusFailed
	req.FailureReason = reason
	req.UpdatedAt = now
	return nil
}

// deferRequest leaves the request for the next run, or fails it once it
// has exhausted its retries in max_request_attempts runs.
func (x *BridgeSettlerRunner) deferRequest(req *models.BridgeRequest, cause error, logger *log.Entry) Outcome {
	attempts := req.Attempts + 1
	if attempts >= x.maxRequestAttempts {
		reason := "retries exhausted: " + cause.Error()
		if req.HasPendingAttempt() {
			// the attempt may still have landed; keep it for reconciliation
			reason += "; unconfirmed attempt " + req.PendingTxHash
		}
		return x.failOrDefer(req, reason, logger)
	}

	filter := bson.M{
		"_id":  req.Id,
		"done": false,
	}
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"attempts":   attempts,
			"updated_at": now,
		},
	}
	if _, err := app.DB.UpdateOne(x.collection, filter, update); err != nil {
		logger.WithError(err).Error("[BRIDGE SETTLER] Error recording attempt")
		return OutcomeDeferred
	}
	req.Attempts = attempts
	req.UpdatedAt = now
	return OutcomeDeferred
}

func (x *BridgeSettlerRunner) updateStatus(result *RunResult, runErr error) {
	x.statusMu.Lock()
	defer x.statusMu.Unlock()

	summary := fmt.Sprintf("pending=%d settled=%d failed=%d deferred=%d", result.Pending, result.Settled, result.Failed, result.Deferred)
	if runErr != nil {
		summary = "error: " + runErr.Error()
	} else if result.TimedOut {
		summary += " timed_out"
	}

	x.status.Summary = summary
	x.status.Settled += int64(result.Settled)
	x.status.Failed += int64(result.Failed)
	x.status.Deferred = int64(result.Deferred)
	x.status.LastRunId = result.RunId
	x.status.LastRunTime = time.Now().UTC().Format(time.RFC3339)
	x.status.Authority = x.signer.PublicKey().String()
}

// UpdateSlot records the cluster slot in the status. Only called when there
// is work, so an empty queue makes no chain calls.
func (x *BridgeSettlerRunner) UpdateSlot(ctx context.Context) {
	slot, err := x.client.GetSlot(ctx)
	if err != nil {
		log.WithError(err).Warn("[BRIDGE SETTLER] Error getting slot")
		return
	}
	x.statusMu.Lock()
	defer x.statusMu.Unlock()
	x.status.SolanaSlot = strconv.FormatUint(slot, 10)
}

// InitStatus carries the cumulative counters over from the last health document.
func (x *BridgeSettlerRunner) InitStatus(lastHealth models.ServiceHealth) {
	x.statusMu.Lock()
	defer x.statusMu.Unlock()
	x.status = lastHealth.Status
	x.status.Authority = x.signer.PublicKey().String()
}

var solclientNewClient = solclient.NewClient

func NewBridgeSettlerRunner(signer common.Signer) *BridgeSettlerRunner {
	log.Debug("[BRIDGE SETTLER] Initializing")

	client, err := solclientNewClient(app.Config.Solana)
	if err != nil {
		log.Fatal("[BRIDGE SETTLER] Error creating solana client: ", err)
	}

	mint, err := solana.PublicKeyFromBase58(app.Config.Solana.TokenMint)
	if err != nil {
		log.Fatal("[BRIDGE SETTLER] Invalid token mint: ", err)
	}

	bridge := app.Config.Bridge
	x := &BridgeSettlerRunner{
		client:             client,
		signer:             signer,
		mint:               mint,
		network:            app.Config.Solana.Network,
		collection:         bridge.Collection,
		maxDuration:        time.Duration(bridge.MaxDurationSecs) * time.Second,
		leaseTTL:           time.Duration(bridge.LeaseTTLSecs) * time.Second,
		maxRequestAttempts: bridge.MaxRequestAttempts,
		confirmTimeout:     time.Duration(bridge.ConfirmTimeoutSecs) * time.Second,
		confirmPoll:        time.Duration(bridge.ConfirmPollMs) * time.Millisecond,
		historyScanLimit:   bridge.HistoryScanLimit,
		retry: util.RetryPolicy{
			Operation:      "settle",
			MaxAttempts:    int(bridge.MaxRetries),
			BackoffInitial: time.Duration(bridge.BackoffInitialMs) * time.Millisecond,
			BackoffMax:     time.Duration(bridge.BackoffMaxMs) * time.Millisecond,
		},
	}
	x.status.Authority = signer.PublicKey().String()

	log.WithFields(log.Fields{
		"authority": signer.PublicKey().String(),
		"mint":      mint.String(),
		"network":   x.network,
	}).Info("[BRIDGE SETTLER] Initialized")
	return x
}

// NewBridgeSettler schedules the runner on an interval. The HTTP trigger
// drives the same runner whether or not this service is enabled.
func NewBridgeSettler(wg *sync.WaitGroup, runner *BridgeSettlerRunner) app.Service {
	if !app.Config.BridgeSettler.Enabled {
		log.Debug("[BRIDGE SETTLER] Interval runner disabled")
		return app.NewEmptyService(wg)
	}
	return app.NewRunnerService(BridgeSettlerName, runner, wg, time.Duration(app.Config.BridgeSettler.IntervalMillis)*time.Millisecond)
}

func NewBridgeSettlerWithLastHealth(wg *sync.WaitGroup, runner *BridgeSettlerRunner, lastHealth models.ServiceHealth) app.Service {
	runner.InitStatus(lastHealth)
	return NewBridgeSettler(wg, runner)
}
