package ecc

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	checksumSize = 4

	// wifVersion is the network version byte of legacy WIF private keys.
	wifVersion byte = 0x80

	keyTypeK1 = "K1"

	privateKeyK1Prefix = "PVT_K1_"
	publicKeyK1Prefix  = "PUB_K1_"
	signatureK1Prefix  = "SIG_K1_"

	// DefaultKeyPrefix is the legacy public key prefix used by EOS mainnet
	// and most EOSIO test networks.
	DefaultKeyPrefix = "EOS"
)

type checksumFunc func(payload []byte) []byte

// doubleSHA256 is the WIF checksum.
func doubleSHA256(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:]
}

// ripemd160Plain is the checksum of legacy public keys.
func ripemd160Plain(payload []byte) []byte {
	h := ripemd160.New()
	h.Write(payload)
	return h.Sum(nil)
}

// ripemd160K1 is the checksum of every "*_K1_" encoding. The key type
// suffix is hashed after the payload but never serialized.
func ripemd160K1(payload []byte) []byte {
	h := ripemd160.New()
	h.Write(payload)
	h.Write([]byte(keyTypeK1))
	return h.Sum(nil)
}

// encodeCheck returns base58(payload | checksum(payload)[:4]).
func encodeCheck(payload []byte, checksum checksumFunc) string {
	full := make([]byte, 0, len(payload)+checksumSize)
	full = append(full, payload...)
	full = append(full, checksum(payload)[:checksumSize]...)
	return base58.Encode(full)
}

// decodeCheck reverses encodeCheck. It returns false when the string is not
// base58, is shorter than a checksum, or the checksum does not match.
func decodeCheck(encoded string, checksum checksumFunc) ([]byte, bool) {
	// base58.Decode signals invalid characters with an empty result.
	full := base58.Decode(encoded)
	if len(full) <= checksumSize {
		return nil, false
	}

	payload := full[:len(full)-checksumSize]
	if !bytes.Equal(full[len(full)-checksumSize:], checksum(payload)[:checksumSize]) {
		return nil, false
	}
	return payload, true
}
