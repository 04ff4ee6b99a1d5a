package testing

import (
	errorsmod "cosmossdk.io/errors"
)

// Result is an operation outcome reduced to its registered error code, the
// way RPC clients see it.
type Result struct {
	Codespace string
	Code      uint32
	Log       string
}

// ResultOf classifies err. A nil error has code 0.
func ResultOf(err error) Result {
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	return Result{Codespace: codespace, Code: code, Log: log}
}

func (r Result) IsSuccess() bool {
	return r.Code == 0
}

// Is reports whether r carries the code of target.
func (r Result) Is(target *errorsmod.Error) bool {
	return r.Codespace == target.Codespace() && r.Code == target.ABCICode()
}
