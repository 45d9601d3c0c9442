package util

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

type classifiedError struct {
	err    error
	class  Class
	reason string
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTransient, reason: "explicit_transient"}
}

func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTerminal, reason: "explicit_terminal"}
}

// Solana JSON-RPC error codes
const (
	codeInvalidRequest             = -32600
	codeMethodNotFound             = -32601
	codeInvalidParams              = -32602
	codeInternalError              = -32603
	codeSendTransactionPreflight   = -32002
	codeBlockNotAvailable          = -32004
	codeNodeUnhealthy              = -32005
	codeSlotSkipped                = -32007
	codeLongTermStorageSlotSkipped = -32009
	codeKeyExcludedFromIndex       = -32010
	codeMinContextSlotNotReached   = -32016
	codeBlockStatusNotAvailableYet = -32014
)

// IsPreflightRejection reports whether a send was refused at simulation.
// Such a transaction was never forwarded to a leader.
func IsPreflightRejection(err error) bool {
	var rpcErr *jsonrpc.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == codeSendTransactionPreflight
}

func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	var marked *classifiedError
	if errors.As(err, &marked) {
		return Decision{Class: marked.class, Reason: marked.reason}
	}

	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassTransient, Reason: "context_deadline_exceeded"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Decision{Class: ClassTransient, Reason: "net_timeout"}
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return classifyRPCError(rpcErr)
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, transientOverrideTokens) {
		return Decision{Class: ClassTransient, Reason: "message_transient"}
	}
	if containsAny(lower, terminalMessageTokens) {
		return Decision{Class: ClassTerminal, Reason: "message_terminal"}
	}
	if containsAny(lower, transientMessageTokens) {
		return Decision{Class: ClassTransient, Reason: "message_transient"}
	}

	return Decision{Class: ClassTerminal, Reason: "unknown_terminal_default"}
}

func classifyRPCError(rpcErr *jsonrpc.RPCError) Decision {
	lower := strings.ToLower(rpcErr.Message)

	switch rpcErr.Code {
	case codeSendTransactionPreflight:
		// a stale blockhash fails preflight but a fresh one will pass
		if containsAny(lower, transientOverrideTokens) {
			return Decision{Class: ClassTransient, Reason: "preflight_blockhash"}
		}
		return Decision{Class: ClassTerminal, Reason: "preflight_failure"}
	case codeInvalidRequest, codeMethodNotFound, codeInvalidParams, codeKeyExcludedFromIndex:
		return Decision{Class: ClassTerminal, Reason: "jsonrpc_terminal"}
	case codeInternalError, codeNodeUnhealthy, codeBlockNotAvailable, codeSlotSkipped,
		codeLongTermStorageSlotSkipped, codeBlockStatusNotAvailableYet, codeMinContextSlotNotReached:
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_transient"}
	}

	if containsAny(lower, terminalMessageTokens) {
		return Decision{Class: ClassTerminal, Reason: "jsonrpc_message_terminal"}
	}
	if rpcErr.Code <= -32000 && rpcErr.Code >= -32099 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_range"}
	}
	return Decision{Class: ClassTerminal, Reason: "jsonrpc_terminal"}
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

// checked before the terminal tokens, which would otherwise match "not found"
var transientOverrideTokens = []string{
	"blockhash not found",
	"block height exceeded",
	"node is behind",
}

var transientMessageTokens = []string{
	"timeout",
	"timed out",
	"temporar",
	"unavailable",
	"connection reset",
	"connection refused",
	"broken pipe",
	"unexpected eof",
	"too many requests",
	"rate limit",
	"429",
	"bad gateway",
	"gateway timeout",
	"internal server error",
	"server closed idle connection",
}

var terminalMessageTokens = []string{
	"insufficient funds",
	"insufficient lamports",
	"invalid account",
	"invalid param",
	"invalid argument",
	"invalid base58",
	"method not found",
	"parse error",
	"account not found",
	"instruction error",
	"custom program error",
}
