package identifiers

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"freight-booking/internal/core/logger"
	"freight-booking/internal/core/metrics"

	"go.uber.org/zap"
)

// Kind names a family of business numbers.
type Kind string

const (
	KindBooking          Kind = "booking"
	KindShipment         Kind = "shipment"
	KindInvoice          Kind = "invoice"
	KindConsolidation    Kind = "consolidation"
	KindWarehouseReceipt Kind = "warehouse_receipt"
)

// SequenceSource finds the highest number already allocated under a prefix.
// Deleted records count: their numbers are never reused.
type SequenceSource interface {
	MaxWithPrefix(ctx context.Context, field, prefix string) (string, bool, error)
}

// TrackingLookup reports whether a tracking number is already taken by a store.
type TrackingLookup interface {
	TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error)
}

// Scope tells the generator where a number family is stored.
type Scope struct {
	Source SequenceSource
	Field  string
}

// Options configures a Generator.
type Options struct {
	// TrackingPrefix is the fixed three letter tracking prefix.
	TrackingPrefix string
	// MaxAttempts caps tracking number regeneration before the timestamp fallback.
	MaxAttempts int
	// Rand overrides the random source.
	Rand *rand.Rand
	// Now overrides the clock.
	Now func() time.Time
}

var categoryPrefixes = map[string]string{
	"AIR_FREIGHT":  "BA",
	"SEA_FREIGHT":  "BS",
	"EXPRESS":      "BE",
	"ROAD_FREIGHT": "BR",
}

var kindPrefixes = map[Kind]string{
	KindShipment:         "SH",
	KindInvoice:          "INV",
	KindConsolidation:    "CN",
	KindWarehouseReceipt: "WR",
}

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator allocates business numbers and tracking numbers.
//
// Sequence numbers take the form PREFIX + YYMM + "-" + 4 digit sequence, one more
// than the highest stored value for the month. The generator does not reserve
// them: the store's unique constraint decides, and callers re-derive on a collision.
type Generator struct {
	scopes      map[Kind]Scope
	trackers    []TrackingLookup
	prefix      string
	maxAttempts int
	now         func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a generator. scopes maps each number family to its store; trackers
// are every store holding tracking numbers.
func New(scopes map[Kind]Scope, trackers []TrackingLookup, opts Options) *Generator {
	if opts.TrackingPrefix == "" {
		opts.TrackingPrefix = "TRK"
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Generator{
		scopes:      scopes,
		trackers:    trackers,
		prefix:      strings.ToUpper(opts.TrackingPrefix),
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		rnd:         opts.Rand,
	}
}

// BookingPrefix returns the two letter prefix for a shipment category.
func BookingPrefix(category string) string {
	if p, ok := categoryPrefixes[strings.ToUpper(category)]; ok {
		return p
	}
	return "BK"
}

// BookingNumber returns the next booking number for category, e.g. BA2501-0007.
func (g *Generator) BookingNumber(ctx context.Context, category string) (string, error) {
	return g.next(ctx, KindBooking, BookingPrefix(category))
}

// ShipmentNumber returns the next shipment number, e.g. SH2501-0001.
func (g *Generator) ShipmentNumber(ctx context.Context) (string, error) {
	return g.next(ctx, KindShipment, kindPrefixes[KindShipment])
}

// InvoiceNumber returns the next invoice number, e.g. INV2501-0001.
func (g *Generator) InvoiceNumber(ctx context.Context) (string, error) {
	return g.next(ctx, KindInvoice, kindPrefixes[KindInvoice])
}

// ConsolidationNumber returns the next consolidation number, e.g. CN2501-0001.
func (g *Generator) ConsolidationNumber(ctx context.Context) (string, error) {
	return g.next(ctx, KindConsolidation, kindPrefixes[KindConsolidation])
}

// WarehouseReceiptNumber returns the next warehouse receipt number, e.g. WR2501-0001.
func (g *Generator) WarehouseReceiptNumber(ctx context.Context) (string, error) {
	return g.next(ctx, KindWarehouseReceipt, kindPrefixes[KindWarehouseReceipt])
}

func (g *Generator) next(ctx context.Context, kind Kind, prefix string) (string, error) {
	scope, ok := g.scopes[kind]
	if !ok || scope.Source == nil {
		return "", fmt.Errorf("identifiers: no store configured for %s numbers", kind)
	}

	pattern := prefix + g.now().Format("0601") + "-"
	highest, found, err := scope.Source.MaxWithPrefix(ctx, scope.Field, pattern)
	if err != nil {
		return "", fmt.Errorf("identifiers: failed to read highest %s number: %w", kind, err)
	}

	seq := 1
	if found {
		n, err := strconv.Atoi(strings.TrimPrefix(highest, pattern))
		if err != nil {
			return "", fmt.Errorf("identifiers: malformed %s number %q: %w", kind, highest, err)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%04d", pattern, seq), nil
}

// TrackingNumber returns a tracking number not present in any tracking store:
// prefix + 2 letters + 4 digits + 2 letters. After MaxAttempts collisions it
// falls back to a timestamp based value so it always terminates.
func (g *Generator) TrackingNumber(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate := g.randomTracking()
		taken, err := g.trackingTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		metrics.IdentifierCollisionsTotal.WithLabelValues("tracking").Inc()
		logger.Named("identifiers").Debug("tracking number collided", zap.String("candidate", candidate), zap.Int("attempt", attempt))
	}

	fallback := g.prefix + strings.ToUpper(strconv.FormatInt(g.now().UnixNano(), 36))
	logger.Named("identifiers").Warn("tracking number retries exhausted, using timestamp fallback",
		zap.Int("attempts", g.maxAttempts),
		zap.String("tracking_number", fallback),
	)
	return fallback, nil
}

func (g *Generator) trackingTaken(ctx context.Context, candidate string) (bool, error) {
	for _, t := range g.trackers {
		taken, err := t.TrackingNumberExists(ctx, candidate)
		if err != nil {
			return false, fmt.Errorf("identifiers: failed to check tracking number: %w", err)
		}
		if taken {
			return true, nil
		}
	}
	return false, nil
}

func (g *Generator) randomTracking() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(len(g.prefix) + 8)
	b.WriteString(g.prefix)
	for i := 0; i < 2; i++ {
		b.WriteByte(letters[g.rnd.Intn(len(letters))])
	}
	fmt.Fprintf(&b, "%04d", g.rnd.Intn(10000))
	for i := 0; i < 2; i++ {
		b.WriteByte(letters[g.rnd.Intn(len(letters))])
	}
	return b.String()
}
