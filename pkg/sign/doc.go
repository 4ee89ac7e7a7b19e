// Package sign provides chain-agnostic signing and recovery interfaces and
// their EOSIO K1 implementation.
//
// The primary interfaces are:
//
//   - Signer: signs messages without exposing private key material
//   - PublicKey: canonical string and byte forms of a public key
//   - PublicKeyRecoverer: recovers the signer's public key from a signature
//
// Signatures travel as "SIG_K1_" strings in JSON. Messages are signed in
// their canonical form, produced by Canonicalize for structured payloads.
//
// Usage
//
//	signer, err := sign.NewEOSSigner(wif)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	message, err := sign.Canonicalize(map[string]any{"id": 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	signature, err := signer.Sign(message)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	recovered, err := (&sign.EOSRecoverer{}).RecoverPublicKey(message, signature)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(recovered.Equals(signer.PublicKey()))
package sign
