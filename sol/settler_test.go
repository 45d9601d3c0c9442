package sol

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/turtle-syndicate/bridge-settler/app"
	appMocks "github.com/turtle-syndicate/bridge-settler/app/mocks"
	"github.com/turtle-syndicate/bridge-settler/common"
	"github.com/turtle-syndicate/bridge-settler/models"
	solclient "github.com/turtle-syndicate/bridge-settler/sol/client"
	solMocks "github.com/turtle-syndicate/bridge-settler/sol/client/mocks"
	"github.com/turtle-syndicate/bridge-settler/sol/util"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetOutput(io.Discard)
}

const (
	testCollection = "trtlBridgeToSolana"
	testLockId     = "lock-id"
)

var (
	testMint       = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	tokenAccount   = &solclient.AccountInfo{Owner: solana.TokenProgramID, Lamports: 2039280, DataLen: 165}
	committed      = &solclient.SignatureStatus{Slot: 10, ConfirmationStatus: "confirmed"}
	transientError = errors.New("read: connection reset by peer")
)

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

type testEnv struct {
	db     *appMocks.MockDatabase
	client *solMocks.MockSolanaClient
	signer common.Signer
	x      *BridgeSettlerRunner
}

func newTestSigner(t *testing.T) common.Signer {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := common.NewKeypairSigner(solana.PrivateKey(priv).String())
	require.NoError(t, err)
	return signer
}

func NewTestBridgeSettler(t *testing.T) *testEnv {
	db := appMocks.NewMockDatabase(t)
	app.DB = db
	client := solMocks.NewMockSolanaClient(t)
	signer := newTestSigner(t)

	authorityATA, _, err := solana.FindAssociatedTokenAddress(signer.PublicKey(), testMint)
	require.NoError(t, err)

	x := &BridgeSettlerRunner{
		client:             client,
		signer:             signer,
		mint:               testMint,
		network:            "devnet",
		collection:         testCollection,
		maxDuration:        time.Minute,
		leaseTTL:           2 * time.Minute,
		maxRequestAttempts: 3,
		confirmTimeout:     time.Minute,
		confirmPoll:        time.Millisecond,
		historyScanLimit:   100,
		retry: util.RetryPolicy{
			Operation:      "test",
			MaxAttempts:    3,
			BackoffInitial: time.Millisecond,
			BackoffMax:     time.Millisecond,
			SleepFn:        noSleep,
		},
		sleepFn:               noSleep,
		authorityTokenAccount: authorityATA,
		authorityBalance:      math.MaxUint64,
	}

	return &testEnv{db: db, client: client, signer: signer, x: x}
}

func newRequest(dest string) models.BridgeRequest {
	id := primitive.NewObjectID()
	return models.BridgeRequest{
		Id:            &id,
		SourceTxHash:  "cardano-" + id.Hex(),
		SourceAddress: "addr_test1qz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgs68faae",
		SourceAmount:  1_000_000,
		DestAddress:   dest,
		DestAmount:    1_000_000,
		CreatedAt:     time.Now(),
	}
}

func newWallet(t *testing.T) solana.PublicKey {
	return newTestSigner(t).PublicKey()
}

func destinationATA(t *testing.T, owner solana.PublicKey) solana.PublicKey {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, testMint)
	require.NoError(t, err)
	return ata
}

func requestFilter(req *models.BridgeRequest) bson.M {
	return bson.M{"_id": req.Id, "done": false}
}

func pendingFilter() bson.M {
	return bson.M{"done": false, "status": bson.M{"$ne": models.BridgeStatusFailed}}
}

func (e *testEnv) expectLease() {
	e.db.EXPECT().PurgeExpiredLocks().Return(0, nil).Once()
	e.db.EXPECT().XLock(e.x.leaseResource(), e.x.leaseTTL).Return(testLockId, nil).Once()
	e.db.EXPECT().Unlock(testLockId).Return(nil).Once()
}

func (e *testEnv) expectPending(requests ...models.BridgeRequest) {
	docs := make([]interface{}, len(requests))
	for i := range requests {
		docs[i] = requests[i]
	}
	e.expectPendingDocs(docs...)
}

// expectPendingDocs returns the documents as the store holds them, so a
// document that does not fit models.BridgeRequest can be served too.
func (e *testEnv) expectPendingDocs(docs ...interface{}) {
	e.db.EXPECT().FindMany(testCollection, pendingFilter(), mock.Anything).
		Run(func(_ string, _ interface{}, result interface{}) {
			raws := make([]bson.Raw, len(docs))
			for i, doc := range docs {
				raw, err := bson.Marshal(doc)
				if err != nil {
					panic(err)
				}
				raws[i] = raw
			}
			*result.(*[]bson.Raw) = raws
		}).Return(nil).Once()
}

func (e *testEnv) expectAuthority() {
	e.client.EXPECT().GetAccountInfo(mock.Anything, e.x.authorityTokenAccount).Return(tokenAccount, nil).Once()
	e.client.EXPECT().GetTokenAccountBalance(mock.Anything, e.x.authorityTokenAccount).Return(uint64(10_000_000), nil).Once()
	e.client.EXPECT().GetSlot(mock.Anything).Return(uint64(12345), nil).Once()
}

// expectUpdate captures the update documents written for req in order.
func (e *testEnv) expectUpdate(req *models.BridgeRequest, updates *[]bson.M, matched int64) {
	e.db.EXPECT().UpdateOne(testCollection, requestFilter(req), mock.Anything).
		Run(func(_ string, _ interface{}, update interface{}) {
			*updates = append(*updates, update.(bson.M))
		}).Return(matched, nil).Once()
}

// expectTransfer wires a destination that exists and a transfer that confirms.
func (e *testEnv) expectTransfer(t *testing.T, owner solana.PublicKey) {
	e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil)
	e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 500}, nil)
	e.client.EXPECT().SendRawTransaction(mock.Anything, mock.Anything).Return(solana.Signature{}, nil)
	e.client.EXPECT().GetSignatureStatus(mock.Anything, mock.Anything).Return(committed, nil)
}

func setOf(update bson.M) bson.M {
	return update["$set"].(bson.M)
}

func signedAttempt(t *testing.T, e *testEnv, req *models.BridgeRequest, lastValid uint64) ([]byte, solana.Signature) {
	key := util.IdempotencyKey(req.Id.Hex(), req.SourceTxHash)
	instructions := []solana.Instruction{
		util.TransferInstruction(e.x.authorityTokenAccount, solana.PublicKey{8}, e.signer.PublicKey(), req.DestAmount),
		util.MemoInstruction(e.signer.PublicKey(), key),
	}
	raw, signature, err := util.BuildSignedTransaction(e.signer, instructions, solana.Hash{3})
	require.NoError(t, err)

	req.Status = models.BridgeStatusSubmitting
	req.IdempotencyKey = key
	req.PendingTxHash = signature.String()
	req.PendingRawTx = base64.StdEncoding.EncodeToString(raw)
	req.LastValidBlockHeight = lastValid
	return raw, signature
}

func TestBridgeSettlerStatus(t *testing.T) {
	e := NewTestBridgeSettler(t)

	e.x.InitStatus(models.ServiceHealth{Status: models.RunnerStatus{Settled: 4, Failed: 1, LastRunId: "previous"}})
	status := e.x.Status()

	assert.Equal(t, int64(4), status.Settled)
	assert.Equal(t, int64(1), status.Failed)
	assert.Equal(t, "previous", status.LastRunId)
	assert.Equal(t, e.signer.PublicKey().String(), status.Authority)
}

func TestRunOnce(t *testing.T) {

	t.Run("Empty Queue Makes No Chain Calls", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.expectLease()
		e.expectPending()

		result, err := e.x.RunOnce(context.Background())

		assert.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, 0, result.Pending)
		e.client.AssertNotCalled(t, "GetAccountInfo", mock.Anything, mock.Anything)
		assert.Contains(t, e.x.Status().Summary, "pending=0")
	})

	t.Run("Lease Held Skips Run", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.db.EXPECT().PurgeExpiredLocks().Return(1, nil).Once()
		e.db.EXPECT().XLock(e.x.leaseResource(), e.x.leaseTTL).Return("", app.ErrLeaseHeld).Once()

		result, err := e.x.RunOnce(context.Background())

		assert.NoError(t, err)
		assert.True(t, result.Skipped)
		e.db.AssertNotCalled(t, "FindMany", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Lease Store Unreachable", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.db.EXPECT().PurgeExpiredLocks().Return(0, errors.New("no reachable servers")).Once()
		e.db.EXPECT().XLock(e.x.leaseResource(), e.x.leaseTTL).Return("", errors.New("no reachable servers")).Once()

		_, err := e.x.RunOnce(context.Background())

		assert.ErrorContains(t, err, "error acquiring lease")
	})

	t.Run("Fetch Error Is Fatal", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.expectLease()
		e.db.EXPECT().FindMany(testCollection, pendingFilter(), mock.Anything).Return(errors.New("cursor error")).Once()

		_, err := e.x.RunOnce(context.Background())

		assert.ErrorContains(t, err, "error fetching pending requests")
		assert.Contains(t, e.x.Status().Summary, "error")
	})

	t.Run("Authority Token Account Missing Is Fatal", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.expectLease()
		e.expectPending(newRequest(newWallet(t).String()))
		e.client.EXPECT().GetAccountInfo(mock.Anything, e.x.authorityTokenAccount).Return(nil, solclient.ErrAccountNotFound).Once()

		_, err := e.x.RunOnce(context.Background())

		assert.ErrorIs(t, err, ErrAuthorityTokenAccount)
	})

	t.Run("Authority Token Account Wrong Owner Is Fatal", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.expectLease()
		e.expectPending(newRequest(newWallet(t).String()))
		e.client.EXPECT().GetAccountInfo(mock.Anything, e.x.authorityTokenAccount).
			Return(&solclient.AccountInfo{Owner: solana.SystemProgramID}, nil).Once()

		_, err := e.x.RunOnce(context.Background())

		assert.ErrorIs(t, err, ErrAuthorityTokenAccount)
	})

	t.Run("Authority Balance Unavailable Is Fatal", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.expectLease()
		e.expectPending(newRequest(newWallet(t).String()))
		e.client.EXPECT().GetAccountInfo(mock.Anything, e.x.authorityTokenAccount).Return(tokenAccount, nil).Once()
		e.client.EXPECT().GetTokenAccountBalance(mock.Anything, e.x.authorityTokenAccount).Return(uint64(0), errors.New("invalid param: not a token account")).Once()

		_, err := e.x.RunOnce(context.Background())

		assert.ErrorIs(t, err, ErrAuthorityTokenAccount)
		assert.ErrorContains(t, err, "error getting balance")
		e.db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Happy Path", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.expectLease()
		e.expectPending(req)
		e.expectAuthority()
		e.expectTransfer(t, owner)

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)
		e.expectUpdate(&req, &updates, 1)

		result, err := e.x.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Pending)
		assert.Equal(t, 1, result.Settled)
		require.Len(t, updates, 2)

		attempt := setOf(updates[0])
		assert.Equal(t, models.BridgeStatusSubmitting, attempt["status"])
		assert.Equal(t, util.IdempotencyKey(req.Id.Hex(), req.SourceTxHash), attempt["idempotency_key"])
		assert.Equal(t, uint64(500), attempt["last_valid_block_height"])
		assert.NotEmpty(t, attempt["pending_raw_tx"])

		settled := setOf(updates[1])
		assert.Equal(t, true, settled["done"])
		assert.Equal(t, models.BridgeStatusSettled, settled["status"])
		assert.Equal(t, attempt["pending_tx_hash"], settled["dest_tx_hash"])

		assert.Equal(t, uint64(9_000_000), e.x.authorityBalance)

		status := e.x.Status()
		assert.Equal(t, int64(1), status.Settled)
		assert.Equal(t, "12345", status.SolanaSlot)
		assert.Equal(t, result.RunId, status.LastRunId)
	})

	t.Run("Malformed Address Fails And Next Is Processed In Order", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		bad := newRequest("not-a-solana-address")
		good := newRequest(owner.String())

		e.expectLease()
		e.expectPending(bad, good)
		e.expectAuthority()
		e.expectTransfer(t, owner)

		var order []string
		record := func(_ string, filter interface{}, _ interface{}) {
			order = append(order, filter.(bson.M)["_id"].(*primitive.ObjectID).Hex())
		}
		var badUpdates []bson.M
		e.db.EXPECT().UpdateOne(testCollection, requestFilter(&bad), mock.Anything).
			Run(func(c string, filter interface{}, update interface{}) {
				record(c, filter, update)
				badUpdates = append(badUpdates, update.(bson.M))
			}).Return(int64(1), nil).Once()
		e.db.EXPECT().UpdateOne(testCollection, requestFilter(&good), mock.Anything).
			Run(record).Return(int64(1), nil).Twice()

		result, err := e.x.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Settled)
		require.Len(t, badUpdates, 1)
		assert.Equal(t, models.BridgeStatusFailed, setOf(badUpdates[0])["status"])
		assert.Contains(t, setOf(badUpdates[0])["failure_reason"], "invalid destination address")
		assert.Equal(t, []string{bad.Id.Hex(), good.Id.Hex(), good.Id.Hex()}, order)
	})

	t.Run("Undecodable Document Fails Without Blocking The Queue", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		poisonId := primitive.NewObjectID()
		poison := bson.D{
			{Key: "_id", Value: poisonId},
			{Key: "source_tx_hash", Value: "cardano-poison"},
			{Key: "dest_address", Value: owner.String()},
			{Key: "dest_amount", Value: int64(-5)},
			{Key: "done", Value: false},
		}
		good := newRequest(owner.String())
		good.SourceAmount = 12.5

		e.expectLease()
		e.expectPendingDocs(poison, good)
		e.expectAuthority()
		e.expectTransfer(t, owner)

		var poisonUpdates []bson.M
		e.expectUpdate(&models.BridgeRequest{Id: &poisonId}, &poisonUpdates, 1)
		var goodUpdates []bson.M
		e.expectUpdate(&good, &goodUpdates, 1)
		e.expectUpdate(&good, &goodUpdates, 1)

		result, err := e.x.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Pending)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Settled)
		require.Len(t, poisonUpdates, 1)
		assert.Equal(t, models.BridgeStatusFailed, setOf(poisonUpdates[0])["status"])
		assert.Contains(t, setOf(poisonUpdates[0])["failure_reason"], "malformed request")
		assert.Contains(t, setOf(poisonUpdates[0])["failure_reason"], "dest_amount")
		require.Len(t, goodUpdates, 2)
		assert.Equal(t, true, setOf(goodUpdates[1])["done"])
	})

	t.Run("Deadline Defers Remaining Requests", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.expectLease()
		e.expectPending(newRequest(newWallet(t).String()), newRequest(newWallet(t).String()))
		e.expectAuthority()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result, err := e.x.RunOnce(ctx)

		assert.NoError(t, err)
		assert.True(t, result.TimedOut)
		assert.Equal(t, 2, result.Deferred)
		e.db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Concurrent Run Is Skipped", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.x.runMu.Lock()
		defer e.x.runMu.Unlock()

		result, err := e.x.RunOnce(context.Background())

		assert.NoError(t, err)
		assert.True(t, result.Skipped)
	})
}

func TestHandleRequest(t *testing.T) {

	t.Run("Zero Amount Fails", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		req.DestAmount = 0

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeFailed, outcome)
		assert.Equal(t, "destination amount is zero", setOf(updates[0])["failure_reason"])
		assert.Equal(t, models.BridgeStatusFailed, req.Status)
	})

	t.Run("Transient Twice Then Success", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil)
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(nil, transientError).Twice()
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 500}, nil).Once()
		e.client.EXPECT().SendRawTransaction(mock.Anything, mock.Anything).Return(solana.Signature{}, nil).Once()
		e.client.EXPECT().GetSignatureStatus(mock.Anything, mock.Anything).Return(committed, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		assert.True(t, req.Done)
		assert.Equal(t, req.PendingTxHash, *req.DestTxHash)
		e.client.AssertNumberOfCalls(t, "GetLatestBlockhash", 3)
	})

	t.Run("Creates Missing Destination Token Account", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(nil, solclient.ErrAccountNotFound).Once()
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 500}, nil).Twice()
		e.client.EXPECT().SendRawTransaction(mock.Anything, mock.Anything).Return(solana.Signature{}, nil).Twice()
		e.client.EXPECT().GetSignatureStatus(mock.Anything, mock.Anything).Return(committed, nil).Twice()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
	})

	t.Run("Insufficient Funds Fails Immediately", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil).Once()
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 500}, nil).Once()
		e.client.EXPECT().SendRawTransaction(mock.Anything, mock.Anything).Return(solana.Signature{}, &jsonrpc.RPCError{
			Code:    -32002,
			Message: "Transaction simulation failed: Error processing Instruction 0: insufficient funds",
		}).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)
		e.expectUpdate(&req, &updates, 1)
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeFailed, outcome)
		require.Len(t, updates, 3)
		assert.Equal(t, models.BridgeStatusPending, setOf(updates[1])["status"])
		assert.Equal(t, models.BridgeStatusFailed, setOf(updates[2])["status"])
		assert.Contains(t, setOf(updates[2])["failure_reason"], "insufficient funds")
		e.client.AssertNumberOfCalls(t, "SendRawTransaction", 1)
	})

	t.Run("Insufficient Authority Balance Fails Before Sending", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		e.x.authorityBalance = 500_000

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeFailed, outcome)
		require.Len(t, updates, 1)
		assert.Equal(t, models.BridgeStatusFailed, setOf(updates[0])["status"])
		assert.Contains(t, setOf(updates[0])["failure_reason"], ErrInsufficientAuthorityBalance.Error())
		assert.Equal(t, uint64(500_000), e.x.authorityBalance)
		e.client.AssertNotCalled(t, "GetLatestBlockhash", mock.Anything)
		e.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
	})

	t.Run("Stale Blockhash Is Rebuilt With A Fresh One", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil)
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 500}, nil).Once()
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{9}, LastValidBlockHeight: 650}, nil).Once()
		e.client.EXPECT().SendRawTransaction(mock.Anything, mock.Anything).Return(solana.Signature{}, &jsonrpc.RPCError{
			Code:    -32002,
			Message: "Transaction simulation failed: Blockhash not found",
		}).Once()
		e.client.EXPECT().SendRawTransaction(mock.Anything, mock.Anything).Return(solana.Signature{}, nil).Once()
		e.client.EXPECT().GetSignatureStatus(mock.Anything, mock.Anything).Return(committed, nil).Once()

		var updates []bson.M
		for i := 0; i < 4; i++ {
			e.expectUpdate(&req, &updates, 1)
		}

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		e.client.AssertNumberOfCalls(t, "GetLatestBlockhash", 2)
		e.client.AssertNotCalled(t, "GetBlockHeight", mock.Anything)
		require.Len(t, updates, 4)

		stale, fresh := setOf(updates[0]), setOf(updates[2])
		assert.Equal(t, models.BridgeStatusPending, setOf(updates[1])["status"])
		assert.Contains(t, updates[1]["$unset"], "pending_tx_hash")
		assert.Contains(t, updates[1]["$unset"], "pending_raw_tx")
		assert.NotEqual(t, stale["pending_tx_hash"], fresh["pending_tx_hash"])
		assert.Equal(t, uint64(650), fresh["last_valid_block_height"])
		assert.Equal(t, stale["idempotency_key"], fresh["idempotency_key"])
		assert.Equal(t, fresh["pending_tx_hash"], setOf(updates[3])["dest_tx_hash"])
	})

	t.Run("Retries Exhausted Defers With Attempt Recorded", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil)
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(nil, transientError)

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeDeferred, outcome)
		assert.Equal(t, int64(1), setOf(updates[0])["attempts"])
		assert.Equal(t, int64(1), req.Attempts)
		e.client.AssertNumberOfCalls(t, "GetLatestBlockhash", 3)
	})

	t.Run("Retries Exhausted Too Often Fails", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())
		req.Attempts = 2

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil)
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(nil, transientError)

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeFailed, outcome)
		assert.Equal(t, models.BridgeStatusFailed, setOf(updates[0])["status"])
		assert.Contains(t, setOf(updates[0])["failure_reason"], "retries exhausted")
	})

	t.Run("Settled Elsewhere Is Skipped", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())

		e.client.EXPECT().GetAccountInfo(mock.Anything, destinationATA(t, owner)).Return(tokenAccount, nil).Once()
		e.client.EXPECT().GetLatestBlockhash(mock.Anything).Return(&solclient.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 500}, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 0)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSkipped, outcome)
		e.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
	})

	t.Run("Store Error On Settle Retries Through Recovery", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())
		e.expectTransfer(t, owner)

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)
		e.db.EXPECT().UpdateOne(testCollection, requestFilter(&req), mock.Anything).Return(int64(0), errors.New("write concern timeout")).Once()
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		e.client.AssertNumberOfCalls(t, "SendRawTransaction", 1)
		require.Len(t, updates, 2)
		assert.Equal(t, setOf(updates[0])["pending_tx_hash"], setOf(updates[1])["dest_tx_hash"])
	})
}

func TestRecoverPendingAttempt(t *testing.T) {

	t.Run("Landed Attempt Is Settled Without Resubmission", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		_, signature := signedAttempt(t, e, &req, 500)

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).
			Return(&solclient.SignatureStatus{Slot: 9, ConfirmationStatus: "finalized"}, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		assert.Equal(t, signature.String(), setOf(updates[0])["dest_tx_hash"])
		assert.Equal(t, true, setOf(updates[0])["done"])
		e.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
	})

	t.Run("Attempt Failed On Chain Fails Request", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		_, signature := signedAttempt(t, e, &req, 500)

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(&solclient.SignatureStatus{
			Slot:               9,
			Err:                map[string]interface{}{"InstructionError": []interface{}{0, "InvalidAccountData"}},
			ConfirmationStatus: "confirmed",
		}, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeFailed, outcome)
		assert.Contains(t, setOf(updates[0])["failure_reason"], ErrTransactionFailed.Error())
	})

	t.Run("Unknown Attempt With Valid Blockhash Is Rebroadcast", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		raw, signature := signedAttempt(t, e, &req, 500)

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(nil, nil).Once()
		e.client.EXPECT().GetBlockHeight(mock.Anything).Return(uint64(400), nil).Once()
		e.client.EXPECT().SendRawTransaction(mock.Anything, raw).Return(signature, nil).Once()
		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(committed, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		assert.Equal(t, signature.String(), setOf(updates[0])["dest_tx_hash"])
	})

	t.Run("Rebroadcast Already Processed", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		raw, signature := signedAttempt(t, e, &req, 500)

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(nil, nil).Once()
		e.client.EXPECT().GetBlockHeight(mock.Anything).Return(uint64(400), nil).Once()
		e.client.EXPECT().SendRawTransaction(mock.Anything, raw).Return(solana.Signature{}, &jsonrpc.RPCError{
			Code:    -32002,
			Message: "Transaction simulation failed: This transaction has already been processed",
		}).Once()
		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(committed, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
	})

	t.Run("Expired Attempt Found By Memo", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		_, signature := signedAttempt(t, e, &req, 500)
		landed := solana.Signature{4, 4}

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(nil, nil).Once()
		e.client.EXPECT().GetBlockHeight(mock.Anything).Return(uint64(600), nil).Once()
		e.client.EXPECT().GetSignaturesForAddress(mock.Anything, e.x.authorityTokenAccount, 100).Return([]solclient.SignatureInfo{
			{Signature: solana.Signature{1}, Memo: "[36] 00000000-0000-5000-8000-000000000000"},
			{Signature: solana.Signature{2}, Memo: "[36] " + req.IdempotencyKey, Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
			{Signature: landed, Memo: "[36] " + req.IdempotencyKey},
		}, nil).Once()

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		assert.Equal(t, landed.String(), setOf(updates[0])["dest_tx_hash"])
		e.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
	})

	t.Run("Expired Attempt Not Found Builds New Attempt", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		owner := newWallet(t)
		req := newRequest(owner.String())
		_, signature := signedAttempt(t, e, &req, 500)
		key := req.IdempotencyKey

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(nil, nil).Once()
		e.client.EXPECT().GetBlockHeight(mock.Anything).Return(uint64(600), nil).Once()
		e.client.EXPECT().GetSignaturesForAddress(mock.Anything, e.x.authorityTokenAccount, 100).Return([]solclient.SignatureInfo{}, nil).Once()
		e.expectTransfer(t, owner)

		var updates []bson.M
		e.expectUpdate(&req, &updates, 1)
		e.expectUpdate(&req, &updates, 1)

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSettled, outcome)
		require.Len(t, updates, 2)
		assert.Equal(t, key, setOf(updates[0])["idempotency_key"])
		assert.NotEqual(t, signature.String(), setOf(updates[0])["pending_tx_hash"])
		assert.Equal(t, setOf(updates[0])["pending_tx_hash"], setOf(updates[1])["dest_tx_hash"])
	})

	t.Run("Idempotent Rerun Of Settled Attempt", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		req := newRequest(newWallet(t).String())
		_, signature := signedAttempt(t, e, &req, 500)

		e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(committed, nil).Once()
		e.db.EXPECT().UpdateOne(testCollection, requestFilter(&req), mock.Anything).Return(int64(0), nil).Once()

		outcome := e.x.HandleRequest(context.Background(), &req)

		assert.Equal(t, OutcomeSkipped, outcome)
		e.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
	})
}

func TestRetriesExhaustedWithUnconfirmedAttempt(t *testing.T) {
	e := NewTestBridgeSettler(t)
	req := newRequest(newWallet(t).String())
	req.Attempts = 2
	_, signature := signedAttempt(t, e, &req, 500)

	e.client.EXPECT().GetSignatureStatus(mock.Anything, signature).Return(nil, transientError)

	var updates []bson.M
	e.expectUpdate(&req, &updates, 1)

	outcome := e.x.HandleRequest(context.Background(), &req)

	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, updates, 1)
	reason := setOf(updates[0])["failure_reason"].(string)
	assert.Contains(t, reason, "retries exhausted")
	assert.Contains(t, reason, "unconfirmed attempt "+signature.String())
	e.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
}

func TestFindPendingRequests(t *testing.T) {
	e := NewTestBridgeSettler(t)
	valid := newRequest(newWallet(t).String())
	valid.SourceAmount = 2.75
	badId := primitive.NewObjectID()

	e.expectPendingDocs(
		valid,
		bson.D{{Key: "_id", Value: badId}, {Key: "dest_amount", Value: "ten"}, {Key: "done", Value: false}},
		bson.D{{Key: "dest_amount", Value: int64(-1)}, {Key: "done", Value: false}},
	)

	requests, err := e.x.FindPendingRequests()

	require.NoError(t, err)
	require.Len(t, requests, 3)

	assert.NoError(t, requests[0].DecodeErr)
	assert.Equal(t, valid.Id.Hex(), requests[0].Request.Id.Hex())
	assert.Equal(t, 2.75, requests[0].Request.SourceAmount)
	assert.Equal(t, valid.DestAmount, requests[0].Request.DestAmount)

	assert.Error(t, requests[1].DecodeErr)
	require.NotNil(t, requests[1].Request.Id)
	assert.Equal(t, badId, *requests[1].Request.Id)

	assert.Error(t, requests[2].DecodeErr)
	assert.Nil(t, requests[2].Request.Id)

	outcome := e.x.failMalformed(requests[2], log.NewEntry(log.StandardLogger()))
	assert.Equal(t, OutcomeSkipped, outcome)
	e.db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestAwaitConfirmation(t *testing.T) {

	t.Run("Expired Blockhash", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.client.EXPECT().GetSignatureStatus(mock.Anything, solana.Signature{1}).Return(nil, nil).Once()
		e.client.EXPECT().GetBlockHeight(mock.Anything).Return(uint64(501), nil).Once()

		err := e.x.awaitConfirmation(context.Background(), solana.Signature{1}, 500)

		assert.ErrorIs(t, err, errBlockhashExpired)
		assert.True(t, util.Classify(err).IsTransient())
	})

	t.Run("Processed Then Confirmed", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.client.EXPECT().GetSignatureStatus(mock.Anything, solana.Signature{1}).
			Return(&solclient.SignatureStatus{Slot: 5, ConfirmationStatus: "processed"}, nil).Once()
		e.client.EXPECT().GetSignatureStatus(mock.Anything, solana.Signature{1}).Return(committed, nil).Once()

		err := e.x.awaitConfirmation(context.Background(), solana.Signature{1}, 500)

		assert.NoError(t, err)
	})

	t.Run("Timeout", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		e.x.confirmTimeout = -time.Second
		e.client.EXPECT().GetSignatureStatus(mock.Anything, solana.Signature{1}).
			Return(&solclient.SignatureStatus{Slot: 5, ConfirmationStatus: "processed"}, nil).Once()

		err := e.x.awaitConfirmation(context.Background(), solana.Signature{1}, 500)

		assert.ErrorIs(t, err, errConfirmationTimeout)
	})
}

func TestNewBridgeSettlerRunner(t *testing.T) {
	saved := app.Config
	original := solclientNewClient
	defer func() {
		app.Config = saved
		solclientNewClient = original
	}()

	app.Config.Solana.Network = "devnet"
	app.Config.Solana.TokenMint = testMint.String()
	app.Config.Bridge.Collection = testCollection
	app.Config.Bridge.MaxDurationSecs = 300
	app.Config.Bridge.LeaseTTLSecs = 330
	app.Config.Bridge.MaxRetries = 5
	app.Config.Bridge.BackoffInitialMs = 500
	app.Config.Bridge.BackoffMaxMs = 8000

	t.Run("Valid Config", func(t *testing.T) {
		client := solMocks.NewMockSolanaClient(t)
		solclientNewClient = func(models.SolanaConfig) (solclient.SolanaClient, error) { return client, nil }
		signer := newTestSigner(t)

		x := NewBridgeSettlerRunner(signer)

		assert.Equal(t, testMint, x.mint)
		assert.Equal(t, 300*time.Second, x.maxDuration)
		assert.Equal(t, 5, x.retry.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, x.retry.BackoffInitial)
		assert.Equal(t, "bridge-settlement/devnet/"+testMint.String(), x.leaseResource())
		assert.Equal(t, signer.PublicKey().String(), x.Status().Authority)
	})

	t.Run("Client Error", func(t *testing.T) {
		solclientNewClient = func(models.SolanaConfig) (solclient.SolanaClient, error) { return nil, errors.New("bad rpc") }

		defer func() { log.StandardLogger().ExitFunc = nil }()
		log.StandardLogger().ExitFunc = func(num int) { panic(fmt.Sprintf("exit %d", num)) }

		assert.Panics(t, func() { NewBridgeSettlerRunner(newTestSigner(t)) })
	})

	t.Run("Invalid Mint", func(t *testing.T) {
		client := solMocks.NewMockSolanaClient(t)
		solclientNewClient = func(models.SolanaConfig) (solclient.SolanaClient, error) { return client, nil }
		app.Config.Solana.TokenMint = "not-a-mint"

		defer func() { log.StandardLogger().ExitFunc = nil }()
		log.StandardLogger().ExitFunc = func(num int) { panic(fmt.Sprintf("exit %d", num)) }

		assert.Panics(t, func() { NewBridgeSettlerRunner(newTestSigner(t)) })
	})
}

func TestNewBridgeSettler(t *testing.T) {
	saved := app.Config
	defer func() { app.Config = saved }()

	t.Run("Disabled", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		app.Config.BridgeSettler.Enabled = false

		service := NewBridgeSettler(&sync.WaitGroup{}, e.x)

		assert.Equal(t, app.EmptyServiceName, service.Health().Name)
	})

	t.Run("Enabled With Last Health", func(t *testing.T) {
		e := NewTestBridgeSettler(t)
		app.Config.BridgeSettler.Enabled = true
		app.Config.BridgeSettler.IntervalMillis = 1000

		service := NewBridgeSettlerWithLastHealth(&sync.WaitGroup{}, e.x, models.ServiceHealth{
			Name:   BridgeSettlerName,
			Status: models.RunnerStatus{Settled: 7},
		})

		health := service.Health()
		assert.Equal(t, BridgeSettlerName, health.Name)
		assert.Equal(t, int64(7), health.Status.Settled)
	})
}

func TestRun(t *testing.T) {
	e := NewTestBridgeSettler(t)
	e.db.EXPECT().PurgeExpiredLocks().Return(0, nil).Once()
	e.db.EXPECT().XLock(mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()

	// a batch-fatal error is logged, the status keeps the previous run
	e.x.Run()

	assert.Empty(t, e.x.Status().Summary)
}
