package sign

import (
	"fmt"
)

var _ Signer = (*MockSigner)(nil)

// MockSigner is a mock implementation of the Signer interface for testing purposes.
// It generates predictable signatures by appending a suffix to the message.
type MockSigner struct {
	publicKey PublicKey
}

// NewMockSigner creates a new MockSigner whose public key renders as id.
func NewMockSigner(id string) *MockSigner {
	return &MockSigner{publicKey: NewMockPublicKey(id)}
}

// Sign generates a mock signature by appending a suffix containing the signer's key.
func (m *MockSigner) Sign(message []byte) (Signature, error) {
	sig := make([]byte, 0, len(message)+len(m.publicKey.String())+11)
	sig = append(sig, message...)
	sig = append(sig, fmt.Sprintf("-signed-by-%s", m.publicKey)...)
	return Signature(sig), nil
}

// PublicKey returns the mock public key associated with this signer.
func (m *MockSigner) PublicKey() PublicKey {
	return m.publicKey
}

var _ PublicKey = (*MockPublicKey)(nil)

// MockPublicKey is a mock implementation of the PublicKey interface for testing.
// It stores an ID string that is used as both the key data and its string form.
type MockPublicKey struct {
	id string
}

// NewMockPublicKey creates a new MockPublicKey with the given ID.
func NewMockPublicKey(id string) *MockPublicKey {
	return &MockPublicKey{id: id}
}

// String returns the ID.
func (m *MockPublicKey) String() string {
	return m.id
}

// Bytes returns the ID as a byte slice.
func (m *MockPublicKey) Bytes() []byte {
	return []byte(m.id)
}

// Equals compares the string representations of both keys.
func (m *MockPublicKey) Equals(other PublicKey) bool {
	return other != nil && m.id == other.String()
}
