// Package pedigree maps vertex pedigree values to owning ranks.
//
// Ownership is a pure function of (pedigree, P): every rank computes the same
// owner for the same pedigree without exchanging a single message. A custom
// Distribution may replace the default content hash; its result is reduced
// modulo P.
package pedigree

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/distgraph/value"
)

// Distribution maps a pedigree to a rank. The result is reduced modulo the
// process count, so it need not be in range.
type Distribution func(v value.Value, userData any) int

// UnsupportedKindError reports a pedigree whose kind cannot be hashed.
// Such pedigrees are owned by rank 0.
type UnsupportedKindError struct {
	Kind value.Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("pedigree: unsupported kind %s, defaulting to rank 0", e.Kind)
}

// Resolver resolves pedigree ownership for a fixed process count.
type Resolver struct {
	ranks        int
	distribution Distribution
	userData     any
	report       func(error)
	logger       *slog.Logger
	sometimes    *rate.Sometimes
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDistribution registers a custom distribution function.
// userData is passed through to fn unchanged.
func WithDistribution(fn Distribution, userData any) Option {
	return func(r *Resolver) {
		r.distribution = fn
		r.userData = userData
	}
}

// WithReport registers a hook receiving resolution errors.
func WithReport(fn func(error)) Option {
	return func(r *Resolver) {
		r.report = fn
	}
}

// WithLogger sets the logger used to report unsupported pedigrees.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a resolver for ranks processes.
func NewResolver(ranks int, optFns ...Option) (*Resolver, error) {
	if ranks < 1 {
		return nil, fmt.Errorf("pedigree: invalid rank count %d", ranks)
	}

	r := &Resolver{
		ranks:     ranks,
		sometimes: &rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(r)
		}
	}
	return r, nil
}

// Ranks returns the process count.
func (r *Resolver) Ranks() int { return r.ranks }

// Owner returns the rank owning pedigree v.
func (r *Resolver) Owner(v value.Value) int {
	if r.ranks == 1 {
		return 0
	}

	if r.distribution != nil {
		return mod(r.distribution(v, r.userData), r.ranks)
	}

	h, err := Hash(v)
	if err != nil {
		r.reportError(err)
		return 0
	}
	return int(h % uint64(r.ranks))
}

func (r *Resolver) reportError(err error) {
	if r.report != nil {
		r.report(err)
	}
	if r.logger != nil {
		r.sometimes.Do(func() {
			r.logger.Warn("pedigree ownership defaulted", "error", err)
		})
	}
}

// Hash returns the DJB2 content hash of v.
//
// Numeric values are hashed through their float64 representation, so Int(3)
// and Float(3) hash alike. Strings hash their raw bytes.
func Hash(v value.Value) (uint64, error) {
	switch {
	case v.IsNumeric():
		f, _ := v.ToFloat64()
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		return djb2(buf[:]), nil
	case v.Kind == value.KindString:
		return djb2String(v.S), nil
	default:
		return 0, &UnsupportedKindError{Kind: v.Kind}
	}
}

const djb2Seed = 5381

func djb2(b []byte) uint64 {
	h := uint64(djb2Seed)
	for _, c := range b {
		h = (h<<5 + h) ^ uint64(c)
	}
	return h
}

func djb2String(s string) uint64 {
	h := uint64(djb2Seed)
	for i := 0; i < len(s); i++ {
		h = (h<<5 + h) ^ uint64(s[i])
	}
	return h
}

func mod(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
