package addrman

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Manager is the concurrency-safe façade over the unsynchronized
// core. A single mutex guards the whole structure; every exported
// method holds it for its entire duration, including the temp-file
// write in Serialize and the parse in Unserialize (Unserialize opens
// the file before taking the lock). This struct's shape (context+cancel, one blanket lock, a named
// go-log logger) is adapted from the teacher's RoutingTable.
type Manager struct {
	mu   sync.Mutex
	core *core

	ctx       context.Context
	ctxCancel context.CancelFunc

	maintenanceInterval time.Duration
	wg                  sync.WaitGroup
}

// Option configures a Manager at construction time.
type Option func(*managerConfig)

type managerConfig struct {
	clock               Clock
	rnd                 Source
	maintenanceInterval time.Duration
}

// WithClock overrides the Clock used for all "now" evaluation.
func WithClock(c Clock) Option {
	return func(cfg *managerConfig) { cfg.clock = c }
}

// WithSource overrides the non-cryptographic randomness source.
func WithSource(s Source) Option {
	return func(cfg *managerConfig) { cfg.rnd = s }
}

// WithMaintenanceInterval sets the period of the background
// collision-resolution loop started by Run. A zero or negative value
// disables the loop: Run then returns without starting a goroutine.
func WithMaintenanceInterval(d time.Duration) Option {
	return func(cfg *managerConfig) { cfg.maintenanceInterval = d }
}

// New constructs an empty Manager with a freshly generated 256-bit key.
func New(opts ...Option) (*Manager, error) {
	cfg := managerConfig{
		clock:               SystemClock{},
		rnd:                 NewSource(),
		maintenanceInterval: 10 * time.Minute,
	}
	for _, o := range opts {
		o(&cfg)
	}

	c, err := newCore(cfg.clock, cfg.rnd)
	if err != nil {
		return nil, fmt.Errorf("addrman: generating manager key: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		core:                c,
		ctx:                 ctx,
		ctxCancel:           cancel,
		maintenanceInterval: cfg.maintenanceInterval,
	}, nil
}

// Run starts the background maintenance goroutine (periodic
// ResolveTriedCollisions), modeled on the teacher's background()
// ticker loop. It returns immediately; call Close to stop it. Run is
// optional — embedders that want to drive maintenance on their own
// schedule never need to call it.
func (m *Manager) Run() {
	if m.maintenanceInterval <= 0 {
		return
	}
	m.wg.Add(1)
	go m.maintain()
}

func (m *Manager) maintain() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.ResolveTriedCollisions(m.ctx); err != nil {
				log.Warnf("addrman: background collision resolution failed: %v", err)
			}
		case <-m.ctx.Done():
			return
		}
	}
}

// Close stops the background maintenance loop, if running. It is safe
// to call multiple times.
func (m *Manager) Close() error {
	m.ctxCancel()
	m.wg.Wait()
	return nil
}

// Size returns the total number of known entries.
func (m *Manager) Size(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.size(), nil
}

// AddToNewTable adds endpoints as learned from source (or from
// themselves, if source is nil), applying a uniform time penalty to
// each. It returns true iff at least one entry was newly created.
func (m *Manager) AddToNewTable(ctx context.Context, endpoints []Endpoint, source *Endpoint, penalty time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	added := false
	for _, ep := range endpoints {
		src := ep
		if source != nil {
			src = *source
		}
		if m.core.addToNewTable(ep, src, penalty) {
			added = true
		}
	}
	return added, nil
}

// MarkGood marks endpoint as successfully contacted.
func (m *Manager) MarkGood(ctx context.Context, endpoint Endpoint, testBeforeEvict bool, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.core.markGood(endpoint, testBeforeEvict, now)
	return nil
}

// Attempt records a connection attempt to endpoint.
func (m *Manager) Attempt(ctx context.Context, endpoint Endpoint, countFailures bool, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.core.attempt(endpoint, countFailures, now)
	return nil
}

// Connect refreshes endpoint's internal timestamp on an active
// connection.
func (m *Manager) Connect(ctx context.Context, endpoint Endpoint, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.core.connect(endpoint, now)
	return nil
}

// SelectPeer picks a candidate outbound dial target, or nil if none
// qualifies.
func (m *Manager) SelectPeer(ctx context.Context, newOnly bool) (*Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.selectPeer(newOnly), nil
}

// SelectTriedCollision returns the current TRIED occupant a pending
// collision candidate would need to displace, for the caller to probe.
func (m *Manager) SelectTriedCollision(ctx context.Context) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.selectTriedCollision(), nil
}

// ResolveTriedCollisions drains the pending tried-collision queue.
func (m *Manager) ResolveTriedCollisions(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.core.resolveTriedCollisions(m.core.clock.Now())
	return nil
}

// GetPeers returns a reservoir sample of non-terrible endpoints.
func (m *Manager) GetPeers(ctx context.Context) ([]Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.getPeers(), nil
}

// Compact drops every NEW-table entry that is currently terrible,
// returning the number removed. TRIED entries are never dropped here.
func (m *Manager) Compact(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.compactTerrible(m.core.clock.Now()), nil
}

// Serialize atomically writes the manager's state to path (write to a
// temp file in the same directory, then rename), so a failure never
// corrupts existing on-disk state. A context cancelled after the write
// but before the rename aborts before touching path, per the
// suspension-point list: the rename is the last, and only necessary,
// checkpoint since everything before it only touches the temp file.
func (m *Manager) Serialize(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".addrman-*.tmp")
	if err != nil {
		return fmt.Errorf("addrman: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once renamed

	if err := m.core.serialize(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("addrman: serializing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("addrman: closing temp file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("addrman: renaming into place: %w", err)
	}
	return nil
}

// Unserialize replaces the manager's state with the contents of path.
// On any parse failure the manager is left completely untouched.
func (m *Manager) Unserialize(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("addrman: opening %s: %w", path, err)
	}
	defer f.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	scratch, err := m.core.unserializeFrom(f)
	if err != nil {
		return err
	}
	m.core = scratch
	return nil
}
