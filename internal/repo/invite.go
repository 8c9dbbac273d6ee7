package repo

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	mathrand "math/rand/v2"
)

const (
	inviteAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultInviteLength = 12
	MinInviteLength     = 10
	MaxInviteLength     = 16

	// largest multiple of len(inviteAlphabet) that fits in a byte
	inviteByteCeiling = 248
)

// TokenGenerator mints invite tokens. Strong is read first; when it fails,
// Fallback (a non-cryptographic generator) is used instead and a warning is
// logged. Tokens from the fallback path are guessable in principle and
// must not be treated as a security guarantee.
type TokenGenerator struct {
	Strong   io.Reader
	Fallback func(n int) int
	Log      *slog.Logger
}

func NewTokenGenerator(log *slog.Logger) *TokenGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &TokenGenerator{
		Strong:   rand.Reader,
		Fallback: mathrand.IntN,
		Log:      log,
	}
}

func ClampInviteLength(length int) int {
	if length <= 0 {
		return DefaultInviteLength
	}
	return max(MinInviteLength, min(MaxInviteLength, length))
}

// Generate returns an alphanumeric token of ClampInviteLength(length)
// characters.
func (g *TokenGenerator) Generate(length int) (string, error) {
	size := ClampInviteLength(length)

	if g.Strong != nil {
		token, err := strongToken(g.Strong, size)
		if err == nil {
			return token, nil
		}
		if g.Fallback == nil {
			return "", fmt.Errorf("%w: %v", ErrNoRandomness, err)
		}
		g.logger().Warn("strong random source failed, using weak fallback for invite token", "err", err)
	}

	if g.Fallback == nil {
		return "", ErrNoRandomness
	}

	out := make([]byte, size)
	for i := range out {
		out[i] = inviteAlphabet[g.Fallback(len(inviteAlphabet))]
	}
	return string(out), nil
}

func (g *TokenGenerator) logger() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}

// strongToken rejects bytes >= inviteByteCeiling so every symbol is
// equally likely.
func strongToken(r io.Reader, size int) (string, error) {
	out := make([]byte, 0, size)
	buf := make([]byte, size*2)

	for len(out) < size {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= inviteByteCeiling {
				continue
			}
			out = append(out, inviteAlphabet[int(b)%len(inviteAlphabet)])
			if len(out) == size {
				break
			}
		}
	}
	return string(out), nil
}
