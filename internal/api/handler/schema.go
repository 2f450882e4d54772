package handler

import (
	"github.com/lotmarket/auction-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type moneyRequest struct {
	Amount   string `json:"amount"   validate:"required"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type createLotRequest struct {
	Name        string       `json:"name"        validate:"required,max=255"`
	Description *string      `json:"description"`
	Condition   string       `json:"condition"   validate:"required"`
	BasePrice   moneyRequest `json:"base_price"`
	ExpiresAt   string       `json:"expires_at"  validate:"required"`
}

type updateLotRequest struct {
	Name        *string       `json:"name"        validate:"omitempty,max=255"`
	Description *string       `json:"description"`
	Condition   *string       `json:"condition"`
	BasePrice   *moneyRequest `json:"base_price"`
}

type submitBidRequest struct {
	Price moneyRequest `json:"price"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Role     string `json:"role"     validate:"omitempty,oneof=member admin"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Response types ---

type moneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type lotLinks struct {
	Self    string `json:"self"`
	Bid     string `json:"bid"`
	History string `json:"history"`
	Sale    string `json:"sale"`
}

type lotResponse struct {
	PublicID       string        `json:"public_id"`
	OwnerID        string        `json:"owner_id,omitempty"`
	Name           string        `json:"name"`
	Description    *string       `json:"description"`
	Condition      string        `json:"condition"`
	ConditionLabel string        `json:"condition_label"`
	BasePrice      moneyResponse `json:"base_price"`
	CreatedAt      string        `json:"created_at"`
	ModifiedAt     *string       `json:"modified_at"`
	ExpiresAt      string        `json:"expires_at"`
	IsActive       bool          `json:"is_active"`
	HighestBid     *bidResponse  `json:"highest_bid"`
	Links          lotLinks      `json:"_links"`
}

type bidResponse struct {
	PublicID    string        `json:"public_id"`
	LotID       string        `json:"lot_id"`
	BidderID    string        `json:"bidder_id"`
	Price       moneyResponse `json:"price"`
	SubmittedAt string        `json:"submitted_at"`
	IsHighest   *bool         `json:"is_highest,omitempty"`
}

type saleResponse struct {
	LotID      string       `json:"lot_id"`
	WinningBid *bidResponse `json:"winning_bid"`
	ClosedAt   string       `json:"closed_at"`
}

type profileResponse struct {
	PublicID  string `json:"public_id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type identityResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token    string            `json:"token,omitempty"`
	Identity *identityResponse `json:"identity,omitempty"`
	Profile  *profileResponse  `json:"profile,omitempty"`
}

type auditEventResponse struct {
	Kind    domain.AuditKind `json:"kind"`
	ActorID string           `json:"actor_id,omitempty"`
	BidID   string           `json:"bid_id,omitempty"`
	Amount  string           `json:"amount,omitempty"`
	At      string           `json:"at"`
}

type sweepResponse struct {
	Queued int `json:"queued"`
}

// pageResponse is the envelope of every list endpoint.
type pageResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
