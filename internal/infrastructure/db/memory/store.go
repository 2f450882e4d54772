// Package memory is a concurrency-safe in-memory store used in development
// mode and tests. Records are copied on the way in and out.
package memory

import (
	"sync"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// Store holds every table behind one lock so cross-table reads such as
// "expired lots without a sale" stay consistent.
type Store struct {
	mu sync.RWMutex

	lots     map[string]*domain.Lot
	bids     map[string][]*domain.Bid // lot id -> bids in append order
	bidsByID map[string]*domain.Bid
	sales    map[string]*domain.Sale

	profiles      map[string]*domain.Profile // public id -> profile
	profileByAuth map[string]string          // auth id -> public id
	identities    map[string]*domain.Identity
}

func NewStore() *Store {
	return &Store{
		lots:          make(map[string]*domain.Lot),
		bids:          make(map[string][]*domain.Bid),
		bidsByID:      make(map[string]*domain.Bid),
		sales:         make(map[string]*domain.Sale),
		profiles:      make(map[string]*domain.Profile),
		profileByAuth: make(map[string]string),
		identities:    make(map[string]*domain.Identity),
	}
}

func cloneLot(l *domain.Lot) *domain.Lot {
	c := *l
	if l.Description != nil {
		d := *l.Description
		c.Description = &d
	}
	return &c
}

func cloneBid(b *domain.Bid) *domain.Bid {
	c := *b
	return &c
}

func cloneSale(s *domain.Sale) *domain.Sale {
	c := *s
	if s.WinningBid != nil {
		c.WinningBid = cloneBid(s.WinningBid)
	}
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
