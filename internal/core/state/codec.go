package state

import (
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/ugorji/go/codec"
)

var cborHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

// Marshal encodes a record as canonical CBOR.
func Marshal(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, cborHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return out, nil
}

// Unmarshal decodes a record written by Marshal.
func Unmarshal(data []byte, v any) error {
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// Load reads and decodes the record at k. It returns nil when absent.
func Load[T any](v ReadView, k keylet.Keylet) (*T, error) {
	data, err := v.Read(k)
	if err != nil || data == nil {
		return nil, err
	}
	rec := new(T)
	if err := Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return rec, nil
}

// Create encodes rec and inserts it at k; k must not exist.
func Create[T any](v View, k keylet.Keylet, rec *T) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}
	return v.Insert(k, data)
}

// Save encodes rec and writes it at k, inserting or updating as needed.
func Save[T any](v View, k keylet.Keylet, rec *T) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}
