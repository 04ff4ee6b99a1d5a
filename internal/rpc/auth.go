package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/crypto"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// SigningMessage is the byte string a caller signs: the params object with
// "signature" removed and "method" added, re-encoded with sorted keys.
func SigningMessage(method string, params json.RawMessage) ([]byte, error) {
	fields := map[string]interface{}{}
	if len(params) > 0 {
		dec := json.NewDecoder(bytes.NewReader(params))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, err
		}
	}
	delete(fields, "signature")
	fields["method"] = method
	return json.Marshal(fields)
}

// Signer produces a DER secp256k1 signature over Sha512Half(msg).
type Signer interface {
	Sign(msg []byte) []byte
}

// SignParams fills in account, public_key and signature on params. The
// caller sets "sequence" first; see the account_sequence method.
func SignParams(method string, params map[string]interface{}, publicKey []byte, signer Signer) error {
	params["account"] = crypto.CalcAccountID(publicKey).String()
	params["public_key"] = hex.EncodeToString(publicKey)
	delete(params, "signature")

	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	msg, err := SigningMessage(method, raw)
	if err != nil {
		return err
	}
	params["signature"] = hex.EncodeToString(signer.Sign(msg))
	return nil
}

// authenticate promotes ctx to RoleUser acting as params.account.
func (s *Server) authenticate(ctx *rpc_types.RpcContext, method string, params json.RawMessage) *rpc_types.RpcError {
	var request struct {
		rpc_types.AccountParam
		rpc_types.SignatureParams
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request); err != nil {
			return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if request.Account == "" {
		return rpc_types.RpcErrorMissingField("account")
	}
	account, err := types.ParseAddress(request.Account)
	if err != nil {
		return rpc_types.RpcErrorActMalformed("Account malformed.")
	}

	if s.cfg.RequireSignatures {
		if rpcErr := verifySignature(account, method, params, request.SignatureParams); rpcErr != nil {
			return rpcErr
		}
		if request.Sequence == nil {
			return rpc_types.RpcErrorMissingField("sequence")
		}
	}

	ctx.Role = rpc_types.RoleUser
	ctx.Account = account
	ctx.Sequence = request.Sequence
	return nil
}

func verifySignature(account types.Address, method string, params json.RawMessage, sig rpc_types.SignatureParams) *rpc_types.RpcError {
	if sig.PublicKey == "" {
		return rpc_types.RpcErrorMissingField("public_key")
	}
	if sig.Signature == "" {
		return rpc_types.RpcErrorMissingField("signature")
	}

	publicKey, err := hex.DecodeString(sig.PublicKey)
	if err != nil {
		return rpc_types.RpcErrorPublicMalformed("Public key is not hex.")
	}
	if crypto.CalcAccountID(publicKey) != account {
		return rpc_types.RpcErrorBadSignature("Public key does not match account.")
	}

	signature, err := hex.DecodeString(sig.Signature)
	if err != nil {
		return rpc_types.RpcErrorBadSignature("Signature is not hex.")
	}

	msg, err := SigningMessage(method, params)
	if err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}

	if err := crypto.Verify(publicKey, msg, signature); err != nil {
		if errors.Is(err, crypto.ErrInvalidPublicKey) {
			return rpc_types.RpcErrorPublicMalformed("Public key malformed.")
		}
		return rpc_types.RpcErrorBadSignature("Signature verification failed.")
	}
	return nil
}
