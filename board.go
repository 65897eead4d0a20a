package main

import "sort"

// NoOne is the night-action target for skipping the action
const NoOne = "no one"

// Bucket collects one role's night actions, or the shared Mafia kill
type Bucket struct {
	Name     string
	Ability  AbilityKind
	Priority int

	expected map[string]bool   // actors seeded at night entry
	targets  map[string]string // actor id -> target id or NoOne
	order    []string          // actors in first-submission order
}

func newBucket(name string, ability AbilityKind, priority int) *Bucket {
	return &Bucket{
		Name:     name,
		Ability:  ability,
		Priority: priority,
		expected: make(map[string]bool),
		targets:  make(map[string]string),
	}
}

// Actions returns actor ids in submission order paired with their targets
func (b *Bucket) Actions() []NightAction {
	out := make([]NightAction, 0, len(b.order))
	for _, actor := range b.order {
		out = append(out, NightAction{Actor: actor, Target: b.targets[actor]})
	}
	return out
}

func (b *Bucket) complete() bool {
	for actor := range b.expected {
		if _, ok := b.targets[actor]; !ok {
			return false
		}
	}
	return true
}

// NightAction is a single submitted action
type NightAction struct {
	Actor  string
	Target string
}

// NightBoard is the per-night ledger of pending actions. Completion is tracked
// against the set of actors expected when the night was seeded.
type NightBoard struct {
	buckets map[string]*Bucket
}

func newNightBoard() *NightBoard {
	return &NightBoard{buckets: make(map[string]*Bucket)}
}

// Seed creates a bucket for every night-capable living role and expects every
// living holder to submit. Buckets with no living holder are never created.
func (nb *NightBoard) Seed(players []*Player) {
	for _, p := range players {
		if !p.Alive || !p.Role.HasNightAction() {
			continue
		}
		b := nb.bucket(p.Role)
		b.expected[p.ID] = true
	}
}

func (nb *NightBoard) bucket(role Role) *Bucket {
	name := role.Bucket()
	b, ok := nb.buckets[name]
	if !ok {
		b = newBucket(name, role.Ability, role.Priority)
		nb.buckets[name] = b
	}
	return b
}

// Seeded reports whether any bucket exists for this night
func (nb *NightBoard) Seeded() bool {
	return len(nb.buckets) > 0
}

// Submit records the actor's target into the named bucket, replacing any
// earlier submission while keeping its place in the submission order.
func (nb *NightBoard) Submit(bucket, actor, target string) {
	b, ok := nb.buckets[bucket]
	if !ok {
		return
	}
	if _, seen := b.targets[actor]; !seen {
		b.order = append(b.order, actor)
	}
	b.targets[actor] = target
}

// JoinMafiaKill moves an actor into the shared Mafia kill: their own bucket
// slot counts as submitted with NoOne and the target goes into the Mafia bucket.
// The Mafia bucket is created on demand when no Mafia killer was seeded.
func (nb *NightBoard) JoinMafiaKill(own Role, actor, target string) {
	nb.Submit(own.Bucket(), actor, NoOne)
	if _, ok := nb.buckets[MafiaBucket]; !ok {
		nb.buckets[MafiaBucket] = newBucket(MafiaBucket, AbilityMafiaKill, mafiaKillPriority)
	}
	nb.Submit(MafiaBucket, actor, target)
}

// Withdraw drops an actor's submission from a bucket they were not seeded into
func (nb *NightBoard) Withdraw(bucket, actor string) {
	b, ok := nb.buckets[bucket]
	if !ok || b.expected[actor] {
		return
	}
	if _, ok := b.targets[actor]; !ok {
		return
	}
	delete(b.targets, actor)
	for i, a := range b.order {
		if a == actor {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// mafiaKillPriority orders the shared Mafia kill after Werewolf and Vigilante kills
const mafiaKillPriority = 3

// Has reports whether the actor was seeded into the named bucket
func (nb *NightBoard) Has(bucket, actor string) bool {
	b, ok := nb.buckets[bucket]
	return ok && b.expected[actor]
}

// Target returns the actor's current target in the named bucket
func (nb *NightBoard) Target(bucket, actor string) (string, bool) {
	b, ok := nb.buckets[bucket]
	if !ok {
		return "", false
	}
	t, ok := b.targets[actor]
	return t, ok
}

// Nullify sets every pending action of the actor to NoOne
func (nb *NightBoard) Nullify(actor string) bool {
	changed := false
	for _, b := range nb.buckets {
		if t, ok := b.targets[actor]; ok && t != NoOne {
			b.targets[actor] = NoOne
			changed = true
		}
	}
	return changed
}

// Redirect retargets every pending action of the actor
func (nb *NightBoard) Redirect(actor, target string) {
	for _, b := range nb.buckets {
		if _, ok := b.targets[actor]; ok {
			b.targets[actor] = target
		}
	}
}

// HasPending reports whether the actor has a non-empty action queued
func (nb *NightBoard) HasPending(actor string) bool {
	for _, b := range nb.buckets {
		if t, ok := b.targets[actor]; ok && t != NoOne {
			return true
		}
	}
	return false
}

// Purge removes a dead player from the barrier and nulls their actions
func (nb *NightBoard) Purge(id string) {
	for _, b := range nb.buckets {
		delete(b.expected, id)
		if _, ok := b.targets[id]; ok {
			b.targets[id] = NoOne
		}
	}
}

// Complete reports whether every seeded actor has submitted
func (nb *NightBoard) Complete() bool {
	for _, b := range nb.buckets {
		if !b.complete() {
			return false
		}
	}
	return true
}

// Waiting returns the number of seeded actors who have not submitted yet
func (nb *NightBoard) Waiting() int {
	n := 0
	for _, b := range nb.buckets {
		for actor := range b.expected {
			if _, ok := b.targets[actor]; !ok {
				n++
			}
		}
	}
	return n
}

// Ordered returns buckets in resolution order: category, then priority, then name
func (nb *NightBoard) Ordered() []*Bucket {
	out := make([]*Bucket, 0, len(nb.buckets))
	for _, b := range nb.buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Ability.Category(), out[j].Ability.Category()
		if ci != cj {
			return ci < cj
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}
