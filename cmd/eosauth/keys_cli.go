package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cambiatus/eosauth/pkg/ecc"
	"github.com/cambiatus/eosauth/pkg/sign"
)

// messageFlags selects the bytes a command signs or checks.
type messageFlags struct {
	message   string
	file      string
	digest    string
	canonical bool
}

func (m *messageFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&m.message, "message", "", "message to sign or check")
	fs.StringVar(&m.file, "file", "", "read the message from a file")
	fs.StringVar(&m.digest, "digest", "", "0x prefixed sha256 digest, instead of a message")
	fs.BoolVar(&m.canonical, "canonical", false, "canonicalize the message as JSON first")
}

// resolve returns the digest to operate on and, when known, the message.
func (m *messageFlags) resolve() (digest, message []byte, err error) {
	set := 0
	for _, v := range []string{m.message, m.file, m.digest} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, nil, errors.New("exactly one of -message, -file or -digest is required")
	}

	if m.digest != "" {
		digest, err := hexutil.Decode(m.digest)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid digest: %w", err)
		}
		if len(digest) != 32 {
			return nil, nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
		}
		return digest, nil, nil
	}

	message = []byte(m.message)
	if m.file != "" {
		if message, err = os.ReadFile(m.file); err != nil {
			return nil, nil, err
		}
	}
	if m.canonical {
		if message, err = sign.Canonicalize(message); err != nil {
			return nil, nil, err
		}
	}
	return ecc.Digest(message), message, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

func loadPrivateKey() (*ecc.PrivateKey, error) {
	raw := os.Getenv(privateKeyEnv)
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", privateKeyEnv)
	}
	return ecc.ParsePrivateKey(raw)
}

type keyPairOutput struct {
	PrivateKey  string `json:"privateKey"`
	PublicKey   string `json:"publicKey"`
	PublicKeyK1 string `json:"publicKeyK1"`
}

func runKeygenCli(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	k1 := fs.Bool("k1", false, "print the private key in PVT_K1_ form")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	pair, err := ecc.GenerateKeyPair()
	if err != nil {
		return err
	}
	defer pair.PrivateKey.Zero()

	privateKey := pair.PrivateKey.WIF()
	if *k1 {
		privateKey = pair.PrivateKey.K1String()
	}
	return writeJSON(out, keyPairOutput{
		PrivateKey:  privateKey,
		PublicKey:   pair.PublicKey.String(),
		PublicKeyK1: pair.PublicKey.K1String(),
	})
}

type signOutput struct {
	Signature string `json:"signature"`
	Digest    string `json:"digest"`
	PublicKey string `json:"publicKey"`
	Message   string `json:"message,omitempty"`
}

func runSignCli(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	var msg messageFlags
	msg.register(fs)
	randomized := fs.Bool("randomized", false, "mix fresh entropy into the nonce")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	digest, message, err := msg.resolve()
	if err != nil {
		return err
	}
	priv, err := loadPrivateKey()
	if err != nil {
		return err
	}
	defer priv.Zero()

	sig, err := ecc.SignHashWithOptions(digest, priv, ecc.SignOptions{Randomized: *randomized})
	if err != nil {
		return err
	}
	return writeJSON(out, signOutput{
		Signature: sig.String(),
		Digest:    hexutil.Encode(digest),
		PublicKey: priv.PublicKey().String(),
		Message:   string(message),
	})
}

func parseSignatureFlag(encoded string) (*ecc.Signature, error) {
	if encoded == "" {
		return nil, errors.New("-signature is required")
	}
	return ecc.ParseSignature(encoded)
}

type recoverOutput struct {
	PublicKey   string `json:"publicKey"`
	PublicKeyK1 string `json:"publicKeyK1"`
	Digest      string `json:"digest"`
}

func runRecoverCli(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recover", flag.ContinueOnError)
	var msg messageFlags
	msg.register(fs)
	signature := fs.String("signature", "", "SIG_K1_ signature")
	prefix := fs.String("prefix", ecc.DefaultKeyPrefix, "public key prefix of the network")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	digest, _, err := msg.resolve()
	if err != nil {
		return err
	}
	sig, err := parseSignatureFlag(*signature)
	if err != nil {
		return err
	}

	pub, err := ecc.RecoverHash(sig, digest)
	if err != nil {
		return err
	}
	return writeJSON(out, recoverOutput{
		PublicKey:   pub.StringWithPrefix(*prefix),
		PublicKeyK1: pub.K1String(),
		Digest:      hexutil.Encode(digest),
	})
}

func runPointsCli(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("points", flag.ContinueOnError)
	var msg messageFlags
	msg.register(fs)
	signature := fs.String("signature", "", "SIG_K1_ signature")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	_, message, err := msg.resolve()
	if err != nil {
		return err
	}
	if message == nil {
		return errors.New("points needs the message, not a digest")
	}
	sig, err := parseSignatureFlag(*signature)
	if err != nil {
		return err
	}

	points, err := ecc.PublicKeyPoints(sig, message)
	if err != nil {
		return err
	}
	return writeJSON(out, points)
}

type verifyOutput struct {
	Valid bool `json:"valid"`
}

func runVerifyCli(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	var msg messageFlags
	msg.register(fs)
	signature := fs.String("signature", "", "SIG_K1_ signature")
	key := fs.String("key", "", "public key expected to have signed")
	prefix := fs.String("prefix", ecc.DefaultKeyPrefix, "public key prefix of the network")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	digest, _, err := msg.resolve()
	if err != nil {
		return err
	}
	sig, err := parseSignatureFlag(*signature)
	if err != nil {
		return err
	}
	pub, err := ecc.ParsePublicKeyWithPrefix(*key, *prefix)
	if err != nil {
		return err
	}

	return writeJSON(out, verifyOutput{Valid: ecc.VerifyHash(sig, digest, pub)})
}
