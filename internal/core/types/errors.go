package types

// DONTCOVER

import (
	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the codespace of every error registered below.
const ModuleName = "market"

// market sentinel errors
var (
	ErrAssetNotFound         = errorsmod.Register(ModuleName, 2, "asset not found")
	ErrCollectionNotFound    = errorsmod.Register(ModuleName, 3, "collection not found")
	ErrInvalidFeeRate        = errorsmod.Register(ModuleName, 4, "invalid fee rate")
	ErrOfferNotFound         = errorsmod.Register(ModuleName, 5, "offer not found")
	ErrOfferNotOpen          = errorsmod.Register(ModuleName, 6, "offer is not open")
	ErrInvalidTransition     = errorsmod.Register(ModuleName, 7, "invalid offer status transition")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 8, "unauthorized")
	ErrInsufficientAllowance = errorsmod.Register(ModuleName, 9, "insufficient allowance")
	ErrInsufficientBalance   = errorsmod.Register(ModuleName, 10, "insufficient balance")
	ErrAlreadyReleased       = errorsmod.Register(ModuleName, 11, "escrow already released")
	ErrZeroAddress           = errorsmod.Register(ModuleName, 12, "zero address")

	ErrFeeMismatch        = errorsmod.Register(ModuleName, 20, "fee amount does not match the collection fee rate")
	ErrCollectionMismatch = errorsmod.Register(ModuleName, 21, "collection does not match the asset")
	ErrInvalidExpiry      = errorsmod.Register(ModuleName, 22, "invalid expiry")
	ErrOfferExpired       = errorsmod.Register(ModuleName, 23, "offer expired")
	ErrInvalidAmount      = errorsmod.Register(ModuleName, 25, "invalid amount")
	ErrEscrowMismatch     = errorsmod.Register(ModuleName, 26, "escrow payout does not match held balance")
	ErrEscrowNotFound     = errorsmod.Register(ModuleName, 27, "escrow account not found")
	ErrCollectionExists   = errorsmod.Register(ModuleName, 28, "collection already registered")
	ErrAssetExists        = errorsmod.Register(ModuleName, 29, "asset already exists")
	ErrNoPendingClaim     = errorsmod.Register(ModuleName, 30, "no pending claim for asset")
	ErrInvalidAddress     = errorsmod.Register(ModuleName, 31, "invalid address")
	ErrNotInitialized     = errorsmod.Register(ModuleName, 32, "market parameters not initialized")
	ErrBadSequence        = errorsmod.Register(ModuleName, 33, "bad account sequence")
)
