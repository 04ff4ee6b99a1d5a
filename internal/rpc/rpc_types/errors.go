package rpc_types

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/types"
)

// RpcError is an RPC error with a stable code and token.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Protocol error codes.
const (
	RpcUNKNOWN          = -1
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603

	RpcMISSING_COMMAND     = 2
	RpcCOMMAND_UNTRUSTED   = 3
	RpcTOO_BUSY            = 6
	RpcSLOW_DOWN           = 7
	RpcNOT_READY           = 13
	RpcINVALID_API_VERSION = 38
	RpcACT_MALFORMED       = 50
	RpcBAD_SIGNATURE       = 61
	RpcPUBLIC_MALFORMED    = 62
)

// RpcMARKET_BASE offsets the registered market error codes so they never
// collide with the protocol codes above.
const RpcMARKET_BASE = 100

// Standard error constructors
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorUnknown(message string) *RpcError {
	return NewRpcError(RpcUNKNOWN, "unknown", "unknown", message)
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorTooBusy(message string) *RpcError {
	return NewRpcError(RpcTOO_BUSY, "tooBusy", "tooBusy", message)
}

func RpcErrorSlowDown(message string) *RpcError {
	return NewRpcError(RpcSLOW_DOWN, "slowDown", "slowDown", message)
}

func RpcErrorNotReady(message string) *RpcError {
	return NewRpcError(RpcNOT_READY, "notReady", "notReady", message)
}

func RpcErrorInvalidApiVersion(version string) *RpcError {
	return NewRpcError(RpcINVALID_API_VERSION, "invalidApiVersion", "invalidApiVersion", "Invalid API version: "+version)
}

func RpcErrorCommandUntrusted(message string) *RpcError {
	return NewRpcError(RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted", message)
}

func RpcErrorActMalformed(message string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", "actMalformed", message)
}

func RpcErrorBadSignature(message string) *RpcError {
	return NewRpcError(RpcBAD_SIGNATURE, "badSignature", "badSignature", message)
}

func RpcErrorPublicMalformed(message string) *RpcError {
	return NewRpcError(RpcPUBLIC_MALFORMED, "publicMalformed", "publicMalformed", message)
}

// RpcErrorMissingField returns an error for a missing required field.
func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Missing field '"+field+"'.")
}

// RpcErrorInvalidField returns an error for an invalid field value.
func RpcErrorInvalidField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Invalid field '"+field+"'.")
}

var marketErrors = []struct {
	err   *errorsmod.Error
	token string
}{
	{types.ErrAssetNotFound, "assetNotFound"},
	{types.ErrCollectionNotFound, "collectionNotFound"},
	{types.ErrInvalidFeeRate, "invalidFeeRate"},
	{types.ErrOfferNotFound, "offerNotFound"},
	{types.ErrOfferNotOpen, "offerNotOpen"},
	{types.ErrInvalidTransition, "invalidTransition"},
	{types.ErrUnauthorized, "unauthorized"},
	{types.ErrInsufficientAllowance, "insufficientAllowance"},
	{types.ErrInsufficientBalance, "insufficientBalance"},
	{types.ErrAlreadyReleased, "alreadyReleased"},
	{types.ErrZeroAddress, "zeroAddress"},
	{types.ErrFeeMismatch, "feeMismatch"},
	{types.ErrCollectionMismatch, "collectionMismatch"},
	{types.ErrInvalidExpiry, "invalidExpiry"},
	{types.ErrOfferExpired, "offerExpired"},
	{types.ErrInvalidAmount, "invalidAmount"},
	{types.ErrEscrowMismatch, "escrowMismatch"},
	{types.ErrEscrowNotFound, "escrowNotFound"},
	{types.ErrCollectionExists, "collectionExists"},
	{types.ErrAssetExists, "assetExists"},
	{types.ErrNoPendingClaim, "noPendingClaim"},
	{types.ErrInvalidAddress, "invalidAddress"},
	{types.ErrNotInitialized, "notInitialized"},
	{types.ErrBadSequence, "badSequence"},
}

// MarketErrorToken returns the RPC token of a registered market error.
func MarketErrorToken(err *errorsmod.Error) string {
	for _, e := range marketErrors {
		if e.err == err {
			return e.token
		}
	}
	return ""
}

// FromError maps an engine error to its RPC form. Registered market errors
// keep their code (offset by RpcMARKET_BASE) and get a stable token; anything
// else is internal.
func FromError(err error) *RpcError {
	if err == nil {
		return nil
	}
	for _, e := range marketErrors {
		if errors.Is(err, e.err) {
			return NewRpcError(RpcMARKET_BASE+int(e.err.ABCICode()), e.token, e.token, err.Error())
		}
	}
	return RpcErrorInternal(fmt.Sprintf("internal error: %v", err))
}
