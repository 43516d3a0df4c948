// Package reconcile maintains the remote-entity map: the local mirrors of
// other sessions' avatars, derived purely from inbound update messages. The
// reconciler is the map's only writer; everything else reads via Snapshot.
package reconcile

import (
	"sync"
	"time"

	"github.com/crateandcrypt/netclient"
	"github.com/crateandcrypt/netclient/protocol"
)

// Entity is one tracked remote avatar. Moving is derived from update cadence:
// it stays true until the idle window elapses without a further update, never
// from computed velocity.
type Entity struct {
	ID           string
	Position     protocol.Position
	Yaw          float64
	Moving       bool
	Visible      bool
	LastUpdateAt time.Time

	movingUntil time.Time
}

// Reconciler turns Join/PlayerUpdate/Leave messages into tracked entities.
// Entities are created on first reference and destroyed only by an explicit
// Leave or Clear, never garbage-collected implicitly: a silently vanishing
// entity would mask protocol bugs.
type Reconciler struct {
	mu         sync.Mutex
	localID    string
	entities   map[string]*Entity
	idleWindow time.Duration
	renderer   netclient.Renderer
}

func New(idleWindow time.Duration, renderer netclient.Renderer) *Reconciler {
	return &Reconciler{
		entities:   make(map[string]*Entity),
		idleWindow: idleWindow,
		renderer:   renderer,
	}
}

// SetLocalID records the local player's id once the welcome assigns it. The
// id guards against the local avatar being duplicated as a remote one.
func (r *Reconciler) SetLocalID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localID = id
}

// OnJoin creates the entity if unseen. Idempotent when it already exists and
// a no-op for the local player's own id.
func (r *Reconciler) OnJoin(id string, pos protocol.Position, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" || id == r.localID {
		return
	}
	if _, ok := r.entities[id]; ok {
		return
	}
	r.entities[id] = &Entity{
		ID:           id,
		Position:     pos,
		Yaw:          pos.Rotation,
		Visible:      true,
		LastUpdateAt: now,
	}
	if r.renderer != nil {
		r.renderer.UpdateRemoteAvatar(id, pos, pos.Rotation)
	}
}

// OnPlayerUpdate upserts the entity: an update for an unseen id creates it
// rather than dropping the message, because the transport gives no guarantee
// that Join arrives before PlayerUpdate. The idle deadline is re-armed on
// every update.
func (r *Reconciler) OnPlayerUpdate(id string, pos protocol.Position, yaw float64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" || id == r.localID {
		return
	}
	e, ok := r.entities[id]
	if !ok {
		e = &Entity{ID: id}
		r.entities[id] = e
	}
	e.Position = pos
	e.Yaw = yaw
	e.Visible = true
	e.Moving = true
	e.LastUpdateAt = now
	e.movingUntil = now.Add(r.idleWindow)

	if r.renderer != nil {
		r.renderer.UpdateRemoteAvatar(id, pos, yaw)
	}
}

// Sweep clears the moving flag of entities whose idle deadline has passed.
// Called on the session tick; the deadline lives on the entity itself, so
// removing an entity removes its timer with it.
func (r *Reconciler) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entities {
		if e.Moving && !now.Before(e.movingUntil) {
			e.Moving = false
		}
	}
}

// OnLeave removes the entity and detaches its rendering resources. The record
// is deleted outright, not merely hidden.
func (r *Reconciler) OnLeave(id string) {
	r.mu.Lock()
	_, ok := r.entities[id]
	delete(r.entities, id)
	r.mu.Unlock()

	if ok && r.renderer != nil {
		r.renderer.RemoveRemoteAvatar(id)
	}
}

// Clear removes every entity, detaching each through the renderer. Invoked on
// disconnect.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	r.entities = make(map[string]*Entity)
	r.mu.Unlock()

	if r.renderer != nil {
		for _, id := range ids {
			r.renderer.RemoveRemoteAvatar(id)
		}
	}
}

// Get returns a copy of one entity.
func (r *Reconciler) Get(id string) (Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Snapshot returns copies of all tracked entities.
func (r *Reconciler) Snapshot() []Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, *e)
	}
	return out
}

// Count returns the number of tracked entities.
func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities)
}
