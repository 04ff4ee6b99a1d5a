package crypto

import (
	"math/big"
)

// Canonicality is the malleability class of a DER secp256k1 signature.
type Canonicality int

const (
	// CanonicityNone is a malformed signature or one with R or S out of range.
	CanonicityNone Canonicality = iota
	// CanonicityCanonical is well formed, but (R, N-S) verifies as well.
	CanonicityCanonical
	// CanonicityFullyCanonical additionally has S <= N/2.
	CanonicityFullyCanonical
)

var (
	// secp256k1Order is the order N of the secp256k1 group.
	secp256k1Order = func() *big.Int {
		n, _ := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
		return n
	}()

	secp256k1HalfOrder = new(big.Int).Rsh(secp256k1Order, 1)
)

// ECDSACanonicality classifies a DER signature:
// 0x30 <len> 0x02 <r-len> <r> 0x02 <s-len> <s>.
// Only fully canonical signatures are accepted by Verify, so a relayed call
// cannot be replayed under a second, equally valid signature.
func ECDSACanonicality(sig []byte) Canonicality {
	if len(sig) < 8 || len(sig) > 72 {
		return CanonicityNone
	}
	if sig[0] != 0x30 || int(sig[1]) != len(sig)-2 {
		return CanonicityNone
	}

	rBytes, rest, ok := parseDERInteger(sig[2:])
	if !ok {
		return CanonicityNone
	}
	sBytes, rest, ok := parseDERInteger(rest)
	if !ok || len(rest) != 0 {
		return CanonicityNone
	}

	r := new(big.Int).SetBytes(rBytes)
	s := new(big.Int).SetBytes(sBytes)
	if r.Sign() <= 0 || r.Cmp(secp256k1Order) >= 0 {
		return CanonicityNone
	}
	if s.Sign() <= 0 || s.Cmp(secp256k1Order) >= 0 {
		return CanonicityNone
	}

	if s.Cmp(secp256k1HalfOrder) <= 0 {
		return CanonicityFullyCanonical
	}
	return CanonicityCanonical
}

// parseDERInteger reads 0x02 <len> <bytes> with minimal, non-negative
// encoding and returns the integer bytes and the remainder.
func parseDERInteger(data []byte) ([]byte, []byte, bool) {
	if len(data) < 2 || data[0] != 0x02 {
		return nil, nil, false
	}

	length := int(data[1])
	if length < 1 || length > 33 || len(data) < 2+length {
		return nil, nil, false
	}

	v := data[2 : 2+length]
	if v[0]&0x80 != 0 {
		return nil, nil, false
	}
	if v[0] == 0 && (length == 1 || v[1]&0x80 == 0) {
		return nil, nil, false
	}
	return v, data[2+length:], true
}
