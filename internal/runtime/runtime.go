// Package runtime implements the runtime context: peer plug-in loading
// through a service-discovery hook, import validation against the
// catalog, and (requester, targetPackage, path) resolution to a
// filesystem path. Failures of individual peers (a supplier or factory
// returning an error, a conflicting peer, an unsatisfied import) are not
// returned to the caller; they accumulate as typed RuntimeProblems in a
// status object instead, following a log-and-continue discipline. Open
// and Reload return an error only when the read-only transaction on the
// inventory cannot be begun. A panic raised by a supplier or factory is
// not recovered.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/inventory"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

// PeerFactory lazily produces a Peer. Opening it may fail; the
// runtime records such failures as BrokenPeerFactory rather than
// propagating them to the caller.
type PeerFactory interface {
	OpenPeer() (identity.Peer, error)
}

// PeerSupplier is one entry in a ServiceLoader's result: invoking it
// yields a PeerFactory, or an error if the supplier itself is broken.
type PeerSupplier func() (PeerFactory, error)

// ServiceLoader is the service-discovery capability: load() returns a
// lazy sequence of suppliers. The default binding is whatever the
// caller wires in (process plug-in discovery, a config-driven
// directory scan, …); tests substitute an in-memory list. The core
// never assumes a specific binding.
type ServiceLoader interface {
	Load() []PeerSupplier
}

// StaticLoader is a ServiceLoader over a fixed, in-memory list of
// suppliers, used by tests in place of a real plug-in discovery
// mechanism.
type StaticLoader []PeerSupplier

// Load implements ServiceLoader.
func (l StaticLoader) Load() []PeerSupplier { return []PeerSupplier(l) }

// ProblemKind distinguishes the shapes of RuntimeProblem.
type ProblemKind string

const (
	ProblemBrokenPeerFactory      ProblemKind = "broken-peer-factory"
	ProblemConflictingPeer        ProblemKind = "conflicting-peer"
	ProblemUnsatisfiedRequirement ProblemKind = "unsatisfied-requirement"
	ProblemInventory              ProblemKind = "inventory-problem"
)

// RuntimeProblem is one recorded failure from loading or validating a
// peer. The runtime accumulates these instead of failing outright.
type RuntimeProblem struct {
	Kind     ProblemKind
	PeerName string
	Required identity.PackageIdentifier
	Cause    error
}

func (p RuntimeProblem) String() string {
	switch p.Kind {
	case ProblemBrokenPeerFactory:
		return fmt.Sprintf("broken peer factory: %v", p.Cause)
	case ProblemConflictingPeer:
		return fmt.Sprintf("conflicting peer: %s already loaded", p.PeerName)
	case ProblemUnsatisfiedRequirement:
		return fmt.Sprintf("peer %s requires %s, which is absent from the catalog", p.PeerName, p.Required.String())
	case ProblemInventory:
		return fmt.Sprintf("inventory problem: %v", p.Cause)
	default:
		return fmt.Sprintf("unknown runtime problem: %v", p.Cause)
	}
}

// Status is the accumulated outcome of the most recent Open/Reload.
// It is a read-only snapshot.
type Status struct {
	Problems []RuntimeProblem
}

// IsFailed reports whether any problem was recorded.
func (s Status) IsFailed() bool { return len(s.Problems) > 0 }

// String renders a multi-line human-readable diagnosis, used by the
// "inventory status" CLI surface.
func (s Status) String() string {
	if len(s.Problems) == 0 {
		return "runtime context: no problems"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "runtime context: %d problem(s)\n", len(s.Problems))
	for _, p := range s.Problems {
		fmt.Fprintf(&b, "  - %s\n", p.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

// Context is the loaded set of peers plus their validated imports,
// exposing file lookup.
type Context struct {
	inv    *inventory.Inventory
	loader ServiceLoader
	log    *slog.Logger

	mu     sync.RWMutex
	peers  map[string]identity.Peer
	status Status
}

// Open loads peers from loader against inv and validates their
// imports, returning a Context that is usable even if status.IsFailed().
func Open(ctx context.Context, inv *inventory.Inventory, loader ServiceLoader, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{
		inv:    inv,
		loader: loader,
		log:    logger.With("domain", "runtime"),
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-runs peer loading and import validation, replacing the
// Context's peer set and status. Idempotent in effect: no hidden state
// persists across calls beyond the new peer set and status.
func (c *Context) Reload(ctx context.Context) error {
	tx, err := c.inv.BeginReadOnly(ctx)
	if err != nil {
		return err
	}
	defer tx.Close()

	peers := make(map[string]identity.Peer)
	var problems []RuntimeProblem

	for _, supplier := range c.loader.Load() {
		factory, err := supplier()
		if err != nil {
			problems = append(problems, RuntimeProblem{Kind: ProblemBrokenPeerFactory, Cause: err})
			c.log.Warn("broken peer supplier", "error", err)
			continue
		}
		peer, err := factory.OpenPeer()
		if err != nil {
			problems = append(problems, RuntimeProblem{Kind: ProblemBrokenPeerFactory, Cause: err})
			c.log.Warn("broken peer factory", "error", err)
			continue
		}
		if _, exists := peers[peer.PackageName]; exists {
			problems = append(problems, RuntimeProblem{Kind: ProblemConflictingPeer, PeerName: peer.PackageName})
			c.log.Warn("conflicting peer", "peer", peer.PackageName)
			continue
		}

		unsatisfied := false
		for name, version := range peer.Imports {
			packageName, err := identity.ParsePackageName(name)
			if err != nil {
				problems = append(problems, RuntimeProblem{Kind: ProblemInventory, Cause: err})
				unsatisfied = true
				continue
			}
			identifier := identity.PackageIdentifier{Name: packageName, Version: version}
			_, ok, err := tx.PackageGet(ctx, identifier)
			if err != nil {
				problems = append(problems, RuntimeProblem{Kind: ProblemInventory, Cause: err})
				unsatisfied = true
				continue
			}
			if !ok {
				problems = append(problems, RuntimeProblem{
					Kind:     ProblemUnsatisfiedRequirement,
					PeerName: peer.PackageName,
					Required: identifier,
				})
				unsatisfied = true
			}
		}
		if unsatisfied {
			c.log.Warn("peer rejected for unsatisfied imports", "peer", peer.PackageName)
			continue
		}

		peers[peer.PackageName] = peer
	}

	c.mu.Lock()
	c.peers = peers
	c.status = Status{Problems: problems}
	c.mu.Unlock()

	c.log.Info("runtime context loaded", "peers", len(peers), "problems", len(problems))
	return nil
}

// Status returns a snapshot of the last Open/Reload's outcome.
func (c *Context) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// FindFile resolves the caller's declared import of targetPackage to a
// concrete Hash-backed file on disk.
func (c *Context) FindFile(ctx context.Context, requester string, targetPackage string, path identity.Path) (string, error) {
	c.mu.RLock()
	peer, ok := c.peers[requester]
	c.mu.RUnlock()
	if !ok {
		return "", sunerr.New(sunerr.KindPeerMissing, "no loaded peer with this package name").WithExtra(requester)
	}

	version, ok := peer.Imports[targetPackage]
	if !ok {
		return "", sunerr.New(sunerr.KindPeerImportMissing, "peer does not import this package").WithExtra(requester, targetPackage)
	}

	packageName, err := identity.ParsePackageName(targetPackage)
	if err != nil {
		return "", err
	}
	identifier := identity.PackageIdentifier{Name: packageName, Version: version}

	tx, err := c.inv.BeginReadOnly(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Close()

	return tx.BlobFile(ctx, identifier, path)
}
