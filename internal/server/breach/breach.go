// Package breach checks secrets against a remote breach corpus using a
// k-anonymity range query: only the first five hex characters of the
// secret's SHA-1 ever leave the process.
package breach

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// PrefixLength is the number of hash characters sent to the corpus.
const PrefixLength = 5

// Status is the outcome of a lookup.
type Status int

const (
	// StatusUnknown means the lookup did not complete (network, timeout,
	// bad response). It says nothing about exposure.
	StatusUnknown Status = iota
	// StatusClean means the corpus has no entry for the secret.
	StatusClean
	// StatusExposed means the corpus lists the secret Count times.
	StatusExposed
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusExposed:
		return "exposed"
	default:
		return "unknown"
	}
}

// Result is a tri-state lookup result. Err carries the cause of an unknown
// result for logging.
type Result struct {
	Status Status
	Count  int64
	Err    error
}

func Clean() Result               { return Result{Status: StatusClean} }
func Exposed(n int64) Result      { return Result{Status: StatusExposed, Count: n} }
func Unknown(err error) Result    { return Result{Status: StatusUnknown, Err: err} }
func (r Result) Conclusive() bool { return r.Status != StatusUnknown }

// Checker is what the vault service and the scheduler depend on.
type Checker interface {
	Check(ctx context.Context, secret string) Result
}

// RangeQuery splits the uppercase SHA-1 of secret into the prefix sent to
// the corpus and the suffix matched locally.
func RangeQuery(secret string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(secret))
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:PrefixLength], h[PrefixLength:]
}
