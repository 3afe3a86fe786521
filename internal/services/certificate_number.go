package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	DefaultCertificatePrefix = "FPDA"
	certificateSuffixLen     = 6
	certificateAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NumberGenerator produces certificate numbers. Uniqueness is enforced by the
// store, not by the generator.
type NumberGenerator func(issuedAt time.Time) (string, error)

// NewNumberGenerator returns a generator for
// <PREFIX>-<unix millis>-<6 chars of [0-9A-Z]>.
func NewNumberGenerator(prefix string) NumberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultCertificatePrefix
	}
	return func(issuedAt time.Time) (string, error) {
		suffix, err := randomSuffix(certificateSuffixLen)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s-%d-%s", prefix, issuedAt.UnixMilli(), suffix), nil
	}
}

func randomSuffix(n int) (string, error) {
	max := big.NewInt(int64(len(certificateAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("certificate suffix: %w", err)
		}
		b.WriteByte(certificateAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// AddYearsClamped adds whole calendar years keeping month and day. A Feb 29
// start lands on Feb 28 when the target year has no leap day, rather than
// rolling into March.
//
// This is intentionally not time.AddDate, which normalizes Feb 29 + 3y to
// Mar 1.
func AddYearsClamped(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	target := y + years
	if m == time.February && d == 29 && !isLeapYear(target) {
		d = 28
	}
	hh, mm, ss := t.Clock()
	return time.Date(target, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
