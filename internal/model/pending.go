package model

import "sync"

// PendingComponents is a mutex-guarded idempotent set of component kinds
// (PendingAssets below is its asset-kind counterpart). Insertion and drain
// are serialized; enqueuing the same kind twice before a drain has no
// additional effect.
type PendingComponents struct {
	mu      sync.Mutex
	members map[ComponentKind]struct{}
}

// NewPendingComponents returns an empty pending-rebuild set.
func NewPendingComponents() *PendingComponents {
	return &PendingComponents{members: make(map[ComponentKind]struct{})}
}

// Insert adds a component kind to the set. Idempotent.
func (p *PendingComponents) Insert(c ComponentKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[c] = struct{}{}
}

// InsertAll seeds the set with every known component kind.
func (p *PendingComponents) InsertAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range AllComponents {
		p.members[c] = struct{}{}
	}
}

// DrainSnapshot atomically empties the set and returns its prior contents.
func (p *PendingComponents) DrainSnapshot() []ComponentKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.members) == 0 {
		return nil
	}
	out := make([]ComponentKind, 0, len(p.members))
	for c := range p.members {
		out = append(out, c)
	}
	p.members = make(map[ComponentKind]struct{})
	return out
}

// Remove drops a single component kind, used when a copy/build succeeds
// mid-drain bookkeeping without disturbing the rest of the snapshot.
func (p *PendingComponents) Remove(c ComponentKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.members, c)
}

// Len reports the current set size.
func (p *PendingComponents) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

// PendingAssets mirrors PendingComponents for asset kinds.
type PendingAssets struct {
	mu      sync.Mutex
	members map[AssetKind]struct{}
}

// NewPendingAssets returns an empty pending-copy set.
func NewPendingAssets() *PendingAssets {
	return &PendingAssets{members: make(map[AssetKind]struct{})}
}

// Insert adds an asset kind to the set. Idempotent.
func (p *PendingAssets) Insert(a AssetKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[a] = struct{}{}
}

// InsertAll seeds the set with every known asset kind.
func (p *PendingAssets) InsertAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range AllAssets {
		p.members[a] = struct{}{}
	}
}

// DrainSnapshot atomically empties the set and returns its prior contents.
func (p *PendingAssets) DrainSnapshot() []AssetKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.members) == 0 {
		return nil
	}
	out := make([]AssetKind, 0, len(p.members))
	for a := range p.members {
		out = append(out, a)
	}
	p.members = make(map[AssetKind]struct{})
	return out
}

// Remove drops a single asset kind.
func (p *PendingAssets) Remove(a AssetKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.members, a)
}

// Len reports the current set size.
func (p *PendingAssets) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}
