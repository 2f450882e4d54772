package handler

import (
	"time"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func toMoneyResponse(m domain.Money) moneyResponse {
	return moneyResponse{Amount: m.Amount().StringFixed(2), Currency: m.Currency()}
}

func toLotResponse(d *ports.LotDetail) lotResponse {
	lot := d.Lot
	self := "/v1/lots/" + lot.PublicID
	resp := lotResponse{
		PublicID:       lot.PublicID,
		OwnerID:        lot.OwnerID,
		Name:           lot.Name,
		Description:    lot.Description,
		Condition:      string(lot.Condition),
		ConditionLabel: lot.Condition.Label(),
		BasePrice:      toMoneyResponse(lot.BasePrice),
		CreatedAt:      formatTime(lot.CreatedAt),
		ExpiresAt:      formatTime(lot.ExpiresAt),
		IsActive:       d.IsActive,
		Links: lotLinks{
			Self:    self,
			Bid:     self + "/bid",
			History: self + "/history",
			Sale:    self + "/sale",
		},
	}
	if lot.ModifiedAt != nil {
		s := formatTime(*lot.ModifiedAt)
		resp.ModifiedAt = &s
	}
	if d.HighestBid != nil {
		b := toBidResponse(d.HighestBid)
		resp.HighestBid = &b
	}
	return resp
}

func toBidResponse(b *domain.Bid) bidResponse {
	return bidResponse{
		PublicID:    b.PublicID,
		LotID:       b.LotID,
		BidderID:    b.BidderID,
		Price:       toMoneyResponse(b.Price),
		SubmittedAt: formatTime(b.SubmittedAt),
	}
}

func toBidViewResponse(v *ports.BidView) bidResponse {
	resp := toBidResponse(v.Bid)
	highest := v.IsHighest
	resp.IsHighest = &highest
	return resp
}

func toSaleResponse(s *domain.Sale) saleResponse {
	resp := saleResponse{LotID: s.LotID, ClosedAt: formatTime(s.ClosedAt)}
	if s.WinningBid != nil {
		b := toBidResponse(s.WinningBid)
		resp.WinningBid = &b
	}
	return resp
}

func toProfileResponse(p *domain.Profile) *profileResponse {
	if p == nil {
		return nil
	}
	return &profileResponse{PublicID: p.PublicID, Username: p.Username, CreatedAt: formatTime(p.CreatedAt)}
}

func toIdentityResponse(i *domain.Identity) *identityResponse {
	if i == nil {
		return nil
	}
	return &identityResponse{ID: i.ID, Username: i.Username, Email: i.Email, Role: i.Role}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
