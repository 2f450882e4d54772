package memory

import (
	"context"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

type SaleRepository struct {
	s *Store
}

func NewSaleRepository(s *Store) *SaleRepository {
	return &SaleRepository{s: s}
}

func (r *SaleRepository) FindByLot(_ context.Context, lotID string) (*domain.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.sales[lotID]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return cloneSale(sale), nil
}

func (r *SaleRepository) Create(_ context.Context, sale *domain.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.sales[sale.LotID]; exists {
		return domain.ErrSaleExists
	}
	r.s.sales[sale.LotID] = cloneSale(sale)
	return nil
}
