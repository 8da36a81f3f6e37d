package anchor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/cosmos/go-bip39"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Signer signs gateway submissions so the ledger can attribute anchors to
// this service's account.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	Address() string
}

// SR25519Signer signs with an sr25519 key and reports its SS58 address.
type SR25519Signer struct {
	privateKey *schnorrkel.SecretKey
	publicKey  *schnorrkel.PublicKey
	address    string
}

// NewSigner accepts either a 0x-prefixed 32-byte hex secret or a BIP-39
// mnemonic.
func NewSigner(secret string, networkPrefix uint16) (*SR25519Signer, error) {
	secret = strings.TrimSpace(secret)

	var miniSecret [32]byte
	if strings.HasPrefix(secret, "0x") {
		keyBytes, err := hex.DecodeString(strings.TrimPrefix(secret, "0x"))
		if err != nil {
			return nil, fmt.Errorf("decode hex key: %w", err)
		}
		if len(keyBytes) != 32 {
			return nil, fmt.Errorf("invalid key length: expected 32 bytes, got %d", len(keyBytes))
		}
		copy(miniSecret[:], keyBytes)
	} else {
		seed, err := bip39.NewSeedWithErrorChecking(secret, "")
		if err != nil {
			return nil, fmt.Errorf("invalid seed phrase: %w", err)
		}
		if len(seed) < 32 {
			return nil, fmt.Errorf("seed too short")
		}
		copy(miniSecret[:], seed[:32])
	}

	miniSecretKey, err := schnorrkel.NewMiniSecretKeyFromRaw(miniSecret)
	if err != nil {
		return nil, fmt.Errorf("create mini secret key: %w", err)
	}

	secretKey := miniSecretKey.ExpandEd25519()
	publicKey, err := secretKey.Public()
	if err != nil {
		return nil, fmt.Errorf("get public key: %w", err)
	}

	return &SR25519Signer{
		privateKey: secretKey,
		publicKey:  publicKey,
		address:    publicKeyToSS58(publicKey, networkPrefix),
	}, nil
}

// Sign signs the provided message using sr25519.
func (s *SR25519Signer) Sign(message []byte) ([]byte, error) {
	context := schnorrkel.NewSigningContext([]byte("substrate"), message)
	sig, err := s.privateKey.Sign(context)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}

	encoded := sig.Encode()
	return encoded[:], nil
}

// Address returns the SS58 encoded address for this signer.
func (s *SR25519Signer) Address() string {
	return s.address
}

func publicKeyToSS58(pubKey *schnorrkel.PublicKey, prefix uint16) string {
	payload := make([]byte, 0, 35)

	if prefix < 64 {
		payload = append(payload, byte(prefix))
	} else {
		payload = append(payload, 0x40|((byte(prefix>>8))&0x3f))
		payload = append(payload, byte(prefix&0xff))
	}

	pubKeyBytes := pubKey.Encode()
	payload = append(payload, pubKeyBytes[:]...)

	checksumInput := []byte("SS58PRE")
	checksumInput = append(checksumInput, payload...)

	h, _ := blake2b.New(64, nil)
	h.Write(checksumInput)
	checksum := h.Sum(nil)

	payload = append(payload, checksum[0:2]...)

	return base58.Encode(payload)
}
