package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Identity is the credential record owned by the token-issuing collaborator.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the internal identity record, 1:1 with an external auth identity.
// It anchors ownership of lots and bids.
type Profile struct {
	PublicID   string     `json:"public_id"`
	AuthID     string     `json:"-"`
	Username   string     `json:"username"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Deleted    bool       `json:"-"`
	DeletedAt  *time.Time `json:"-"`
}
