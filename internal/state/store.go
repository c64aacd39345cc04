// Package state keeps an in-memory snapshot of the business entities so read
// paths never hit the database and sync messages from peer processes can be
// applied cheaply. Writes are last-write-wins whole-entity replacements,
// which makes replaying a sync message idempotent.
package state

import (
	"sort"
	"sync"

	"consignment-tracker/internal/core"
)

type Store struct {
	mu           sync.RWMutex
	products     map[string]core.Product
	partners     map[string]core.Partner
	consignments map[string]core.ConsignmentOrder
	sales        map[string]core.SaleRecord
}

func NewStore() *Store {
	return &Store{
		products:     make(map[string]core.Product),
		partners:     make(map[string]core.Partner),
		consignments: make(map[string]core.ConsignmentOrder),
		sales:        make(map[string]core.SaleRecord),
	}
}

// Load replaces the entire snapshot. Used at startup and on RELOAD_ALL.
func (s *Store) Load(products []core.Product, partners []core.Partner, consignments []core.ConsignmentOrder, sales []core.SaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[string]core.Product, len(products))
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.partners = make(map[string]core.Partner, len(partners))
	for _, p := range partners {
		s.partners[p.ID] = p
	}
	s.consignments = make(map[string]core.ConsignmentOrder, len(consignments))
	for _, c := range consignments {
		s.consignments[c.ID] = c
	}
	s.sales = make(map[string]core.SaleRecord, len(sales))
	for _, r := range sales {
		s.sales[r.ID] = r
	}
}

func (s *Store) PutProduct(p core.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) RemoveProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *Store) GetProduct(id string) (core.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) PutPartner(p core.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partners[p.ID] = p
}

func (s *Store) GetPartner(id string) (core.Partner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	return p, ok
}

func (s *Store) PutConsignment(c core.ConsignmentOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consignments[c.ID] = c
}

func (s *Store) RemoveConsignment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.consignments, id)
}

func (s *Store) GetConsignment(id string) (core.ConsignmentOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consignments[id]
	return c, ok
}

func (s *Store) PutSale(r core.SaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[r.ID] = r
}

// Products returns a stable-ordered snapshot (creation time, then id).
func (s *Store) Products() []core.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Partners() []core.Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Partner, 0, len(s.partners))
	for _, p := range s.partners {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Consignments() []core.ConsignmentOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ConsignmentOrder, 0, len(s.consignments))
	for _, c := range s.consignments {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Sales returns sales newest first, matching the history view's order.
func (s *Store) Sales() []core.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SaleRecord, 0, len(s.sales))
	for _, r := range s.sales {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LowStockProducts filters the snapshot down to products at or below their
// alert threshold.
func (s *Store) LowStockProducts() []core.Product {
	all := s.Products()
	out := make([]core.Product, 0)
	for _, p := range all {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out
}
