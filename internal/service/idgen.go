package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// DefaultCodeLength is the length of generated reward codes
	DefaultCodeLength = 8

	rewardCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	mailIDAlphabet     = "abcdefghijklmnopqrstuvwxyz0123456789"
	mailIDSuffixLength = 6
)

// GenerateRewardCode draws length characters uniformly from A-Z and 0-9.
// Uniqueness is enforced by the store at write time, not here.
func GenerateRewardCode(length int) (string, error) {
	return randomString(rewardCodeAlphabet, length)
}

// GenerateMailID returns "mail_<unix seconds>_<6 random lowercase/digits>"
func GenerateMailID(now time.Time) (string, error) {
	suffix, err := randomString(mailIDAlphabet, mailIDSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mail_%d_%s", now.Unix(), suffix), nil
}

func randomString(alphabet string, length int) (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
