package routeplanner

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"net/netip"
	"time"
)

const (
	defaultFailingCooldown = time.Hour
	maxSelectAttempts      = 32
)

var (
	ErrNoBlocks           = errors.New("routeplanner: at least one ip block is required")
	ErrNoAddressAvailable = errors.New("routeplanner: no usable address available")
)

// Logger is the subset of *log.Logger the planner writes to.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
}

type Config struct {
	IPBlocks   []string
	ExcludeIPs []string

	// FailingCooldown is how long a rate limited address stays out of rotation.
	FailingCooldown time.Duration
	Store           FailingStore
	Log             Logger
}

// RoutePlanner picks the local source address for each outbound request.
// Its block and exclusion sets never change after New.
type RoutePlanner struct {
	blocks   []netip.Prefix
	excluded map[netip.Addr]struct{}
	cooldown time.Duration
	store    FailingStore
	log      Logger

	random   func([]byte)
	pickSlot func(n int) int
}

func New(cfg Config) (*RoutePlanner, error) {
	if len(cfg.IPBlocks) == 0 {
		return nil, ErrNoBlocks
	}

	blocks := make([]netip.Prefix, 0, len(cfg.IPBlocks))
	for _, raw := range cfg.IPBlocks {
		prefix, err := ParseBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("routeplanner: %w", err)
		}
		blocks = append(blocks, prefix)
	}

	excluded := make(map[netip.Addr]struct{}, len(cfg.ExcludeIPs))
	for _, raw := range cfg.ExcludeIPs {
		addr, err := ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("routeplanner: exclude list: %w", err)
		}
		excluded[addr] = struct{}{}
	}

	cooldown := cfg.FailingCooldown
	if cooldown <= 0 {
		cooldown = defaultFailingCooldown
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryFailingStore()
	}

	logger := cfg.Log
	if logger == nil {
		logger = nopLogger{}
	}

	for _, block := range blocks {
		logger.Debug("route planner block loaded", "block", block.String(), "addresses", blockSize(block))
	}

	return &RoutePlanner{
		blocks:   blocks,
		excluded: excluded,
		cooldown: cooldown,
		store:    store,
		log:      logger,
		random:   func(b []byte) { _, _ = rand.Read(b) },
		pickSlot: mathrand.IntN,
	}, nil
}

// NextAddress returns a random address from a random block, skipping excluded
// and failing addresses.
func (p *RoutePlanner) NextAddress(ctx context.Context) (netip.Addr, error) {
	for attempt := 0; attempt < maxSelectAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return netip.Addr{}, err
		}

		block := p.blocks[p.pickSlot(len(p.blocks))]
		addr := randomAddress(block, p.random)

		if p.isExcluded(addr) {
			continue
		}

		failing, err := p.store.IsFailing(ctx, addr)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("routeplanner: %w", err)
		}
		if failing {
			continue
		}

		p.log.Debug("route planner selected address", "address", addr.String(), "block", block.String())
		return addr, nil
	}

	return netip.Addr{}, ErrNoAddressAvailable
}

// MarkFailing removes addr from rotation for the configured cooldown.
func (p *RoutePlanner) MarkFailing(ctx context.Context, addr netip.Addr) error {
	if err := p.store.MarkFailing(ctx, addr, p.cooldown); err != nil {
		return fmt.Errorf("routeplanner: %w", err)
	}
	p.log.Info("route planner marked address as failing", "address", addr.String(), "cooldown", p.cooldown)
	return nil
}

func (p *RoutePlanner) Blocks() []netip.Prefix {
	out := make([]netip.Prefix, len(p.blocks))
	copy(out, p.blocks)
	return out
}

func (p *RoutePlanner) isExcluded(addr netip.Addr) bool {
	_, ok := p.excluded[addr.Unmap()]
	return ok
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(interface{}, ...interface{})  {}
