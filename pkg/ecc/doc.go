// Package ecc implements the secp256k1 identity primitives used by EOSIO
// (Antelope) chains: key generation, canonical key and signature encodings,
// signing, and public key recovery.
//
// # Encodings
//
// Private keys use the legacy WIF form (version byte 0x80, double SHA-256
// checksum) and can also be read from the "PVT_K1_" form. Public keys use the
// network prefixed legacy form ("EOS" by default) and the "PUB_K1_" form.
// Signatures always use the "SIG_K1_" form:
//
//	SIG_K1_ base58( i | r[32] | s[32] | ripemd160(i | r | s | "K1")[:4] )
//
// where i = 31 + recovery id.
//
// # Signing and recovery
//
// Messages are hashed with SHA-256 before signing. The signer only emits
// low-S signatures that also satisfy the EOSIO canonical-form rule, walking
// the RFC6979 nonce sequence until one does.
//
//	pair, err := ecc.GenerateKeyPair()
//	if err != nil {
//	    return err
//	}
//	sig, err := ecc.Sign([]byte(`{"id":1}`), pair.PrivateKey)
//	if err != nil {
//	    return err
//	}
//	pub, err := ecc.Recover(sig, []byte(`{"id":1}`))
//
// # Silent recovery mismatch
//
// Recover never detects a message mismatch. Given bytes that differ from what
// was signed it returns a perfectly valid, but unrelated, public key. Callers
// must compare the recovered key with a key they already trust (for example
// the keys of an on-chain account) before acting on it.
//
// All functions in this package are pure and safe for concurrent use.
package ecc
