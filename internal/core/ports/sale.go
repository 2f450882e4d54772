package ports

import (
	"context"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// SaleRepository stores closed auctions. At most one sale exists per lot.
type SaleRepository interface {
	FindByLot(ctx context.Context, lotID string) (*domain.Sale, error)
	// Create returns domain.ErrSaleExists when the lot already has a sale.
	Create(ctx context.Context, sale *domain.Sale) error
}

type SaleService interface {
	CloseLot(ctx context.Context, lotID, actorID string) (*domain.Sale, error)
	GetSale(ctx context.Context, lotID string) (*domain.Sale, error)
	FinalizeExpired(ctx context.Context, lotID string) (*domain.Sale, error)
	PendingFinalization(ctx context.Context, limit int) ([]string, error)
}
