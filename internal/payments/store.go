package payments

import "sync"

// Canceler is the slice of a poll handle the store needs to enforce the
// at-most-one-active invariant.
type Canceler interface {
	Cancel()
}

// TransactionStore tracks the active payment intent per owner (one UI
// surface, i.e. one team session, shows at most one PIX modal at a time).
// Registering a new intent for an owner cancels the previous poller first,
// so two pollers can never race to update the same surface.
type TransactionStore struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	intent *PaymentIntent
	poll   Canceler
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{slots: make(map[string]*slot)}
}

// Register stores the intent as the owner's active transaction. Any
// previously registered poller for that owner is cancelled before the new
// slot takes effect.
func (s *TransactionStore) Register(owner string, intent *PaymentIntent, poll Canceler) {
	s.mu.Lock()
	previous := s.slots[owner]
	s.slots[owner] = &slot{intent: intent, poll: poll}
	s.mu.Unlock()

	if previous != nil && previous.poll != nil {
		previous.poll.Cancel()
	}
}

// Current returns the owner's active intent, or nil.
func (s *TransactionStore) Current(owner string) *PaymentIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry := s.slots[owner]; entry != nil {
		return entry.intent
	}
	return nil
}

// Clear evicts the owner's intent and cancels its poller. Calling it again
// is a no-op.
func (s *TransactionStore) Clear(owner string) {
	s.mu.Lock()
	entry := s.slots[owner]
	delete(s.slots, owner)
	s.mu.Unlock()

	if entry != nil && entry.poll != nil {
		entry.poll.Cancel()
	}
}

// ClearIf evicts the owner's slot only while it still holds the given
// transaction, so a terminal callback cannot evict an intent that already
// superseded it.
func (s *TransactionStore) ClearIf(owner, transactionID string) {
	s.mu.Lock()
	entry := s.slots[owner]
	if entry == nil || entry.intent == nil || entry.intent.TransactionID != transactionID {
		s.mu.Unlock()
		return
	}
	delete(s.slots, owner)
	s.mu.Unlock()

	if entry.poll != nil {
		entry.poll.Cancel()
	}
}
