package lifecycle

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/jedisct1/go-minisign"
)

var (
	ErrChecksumMismatch = errors.New("update checksum mismatch")
	ErrBadSignature     = errors.New("update signature verification failed")
	ErrNoPublicKey      = errors.New("no update public key configured")
)

func verifyChecksum(data []byte, want string) error {
	if want == "" {
		return nil
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// verifySignature checks data against a minisign signature. Both the key and
// the signature may be given as the raw minisign text or base64 encoded
// minisign text, as release manifests carry them.
func verifySignature(data []byte, pubKey, signature string) error {
	if strings.TrimSpace(pubKey) == "" {
		return ErrNoPublicKey
	}

	keyLine := lastLine(unwrap(pubKey))
	pk, err := minisign.NewPublicKey(keyLine)
	if err != nil {
		return fmt.Errorf("invalid update public key: %w", err)
	}

	sig, err := minisign.DecodeSignature(unwrap(signature))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	ok, err := pk.Verify(data, sig)
	if err != nil || !ok {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// unwrap base64-decodes s when it encodes minisign text, and returns it
// trimmed as is otherwise.
func unwrap(s string) string {
	s = strings.TrimSpace(s)
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil && strings.Contains(string(decoded), "comment:") {
		return strings.TrimSpace(string(decoded))
	}
	return s
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
