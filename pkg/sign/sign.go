package sign

import (
	"encoding/json"
	"fmt"

	"github.com/cambiatus/eosauth/pkg/ecc"
)

// Signer is an interface for a chain-agnostic signer.
type Signer interface {
	PublicKey() PublicKey                   // Public key associated with this signer.
	Sign(message []byte) (Signature, error) // Sign hashes and signs the given message.
}

// PublicKeyRecoverer is an interface for recovering public keys from signatures.
//
// Recovery over the wrong message does not fail, it yields a different key.
// Implementations cannot detect that, so callers compare the result with a
// key they trust.
type PublicKeyRecoverer interface {
	RecoverPublicKey(message []byte, signature Signature) (PublicKey, error)
}

// PublicKey is an interface for a chain-agnostic public key.
type PublicKey interface {
	fmt.Stringer // All public keys have a canonical string form.

	Bytes() []byte
	// Equals returns true if this key equals the other key.
	Equals(other PublicKey) bool
}

// Signature is the compact i | r | s signature, 65 bytes for K1 keys.
type Signature []byte

// Type represents the curve/key type used for signatures.
type Type uint8

const (
	TypeK1      Type = iota
	TypeUnknown      = 255
)

const compactSignatureSize = 65

// String returns the string representation of the key type.
func (t Type) String() string {
	switch t {
	case TypeK1:
		return "K1"
	default:
		return "Unknown"
	}
}

// Type returns the signature type based on its length.
func (s Signature) Type() Type {
	if len(s) == compactSignatureSize {
		return TypeK1
	}
	return TypeUnknown
}

// ParseSignature decodes a "SIG_K1_" string.
func ParseSignature(encoded string) (Signature, error) {
	sig, err := ecc.ParseSignature(encoded)
	if err != nil {
		return nil, err
	}
	return Signature(sig.Bytes()), nil
}

// MarshalJSON implements the json.Marshaler interface, encoding the signature as a SIG_K1_ string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	decoded, err := ParseSignature(encoded)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String implements the fmt.Stringer interface. Signatures of unknown type
// have no canonical text form and render as an empty string.
func (s Signature) String() string {
	sig, err := s.compact()
	if err != nil {
		return ""
	}
	return sig.String()
}

func (s Signature) compact() (*ecc.Signature, error) {
	return ecc.SignatureFromBytes(s)
}

// NewPublicKeyRecoverer creates an appropriate PublicKeyRecoverer based on the key type.
func NewPublicKeyRecoverer(sigType Type) (PublicKeyRecoverer, error) {
	switch sigType {
	case TypeK1:
		return &EOSRecoverer{}, nil
	default:
		return nil, fmt.Errorf("unsupported signature type: %s", sigType.String())
	}
}

// NewPublicKeyRecovererFromSignature creates a PublicKeyRecoverer based on signature type detection.
func NewPublicKeyRecovererFromSignature(signature Signature) (PublicKeyRecoverer, error) {
	return NewPublicKeyRecoverer(signature.Type())
}
