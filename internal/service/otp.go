package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
)

// CodeGenerator returns a numeric code of the given length.
type CodeGenerator func(length int) (string, error)

// GenerateCode draws a uniformly random numeric code from crypto/rand.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}
	code := make([]byte, length)
	ten := big.NewInt(10)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// hashCode binds code to its session token so equal codes never share a hash.
func hashCode(token, code string) string {
	sum := sha256.Sum256([]byte(token + ":" + code))
	return hex.EncodeToString(sum[:])
}

func codeMatches(token, code, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(hashCode(token, code)), []byte(hash)) == 1
}

// CodeSender delivers a verification code to a phone number.
type CodeSender interface {
	Send(ctx context.Context, phoneNumber, code string) error
}

// LogCodeSender writes codes to the log instead of sending an SMS.
type LogCodeSender struct {
	logger zerolog.Logger
}

// NewLogCodeSender creates a sender for local development.
func NewLogCodeSender(logger zerolog.Logger) *LogCodeSender {
	return &LogCodeSender{logger: logger.With().Str("component", "code-sender").Logger()}
}

func (s *LogCodeSender) Send(ctx context.Context, phoneNumber, code string) error {
	s.logger.Info().
		Str("phone_number", phoneNumber).
		Str("code", code).
		Msg("verification code issued")
	return nil
}
