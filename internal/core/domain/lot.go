package domain

import (
	"fmt"
	"strings"
	"time"
)

// Condition describes the physical state of the item on sale.
type Condition string

const (
	ConditionNewUnopened Condition = "NEW_UNOPENED"
	ConditionNewUnused   Condition = "NEW_UNUSED"
	ConditionUsed        Condition = "USED"
	ConditionDefective   Condition = "DEFECTIVE"
)

var conditionLabels = map[Condition]string{
	ConditionNewUnopened: "New - unopened",
	ConditionNewUnused:   "New - opened but unused",
	ConditionUsed:        "Used",
	ConditionDefective:   "Requires service or repair",
}

// ParseCondition validates a raw condition value.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := conditionLabels[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCondition, s)
	}
	return c, nil
}

// Label returns the human readable description of c.
func (c Condition) Label() string { return conditionLabels[c] }

// LotState is derived on every read from expires_at and the deletion flag.
// It is never stored.
type LotState string

const (
	LotActive  LotState = "active"
	LotExpired LotState = "expired"
	LotDeleted LotState = "deleted"
)

const maxLotNameLen = 255

// Lot is an item listed for auction.
type Lot struct {
	PublicID    string     `json:"public_id"`
	OwnerID     string     `json:"owner_id,omitempty"` // empty once the owner profile is removed
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Condition   Condition  `json:"condition"`
	BasePrice   Money      `json:"base_price"`
	CreatedAt   time.Time  `json:"created_at"`
	ModifiedAt  *time.Time `json:"modified_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Deleted     bool       `json:"-"`
	DeletedAt   *time.Time `json:"-"`
}

// NewLotParams carries the validated inputs of a lot creation.
type NewLotParams struct {
	PublicID    string
	OwnerID     string
	Name        string
	Description *string
	Condition   Condition
	BasePrice   Money
	ExpiresAt   time.Time
	Now         time.Time
}

// NewLot builds a lot. An expires_at already in the past is accepted and yields
// an expired lot.
func NewLot(p NewLotParams) (*Lot, error) {
	if p.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner", ErrMissingField)
	}
	if err := validateLotName(p.Name); err != nil {
		return nil, err
	}
	if _, ok := conditionLabels[p.Condition]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCondition, p.Condition)
	}
	if p.BasePrice.Currency() == "" {
		return nil, fmt.Errorf("%w: base_price", ErrMissingField)
	}
	if p.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: expires_at", ErrMissingField)
	}
	return &Lot{
		PublicID:    p.PublicID,
		OwnerID:     p.OwnerID,
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		Condition:   p.Condition,
		BasePrice:   p.BasePrice,
		CreatedAt:   p.Now.UTC(),
		ExpiresAt:   p.ExpiresAt.UTC(),
	}, nil
}

func validateLotName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if len(name) > maxLotNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxLotNameLen)
	}
	return nil
}

// State derives the lifecycle state at now.
func (l *Lot) State(now time.Time) LotState {
	switch {
	case l.Deleted:
		return LotDeleted
	case now.Before(l.ExpiresAt):
		return LotActive
	default:
		return LotExpired
	}
}

// IsActive is true strictly before expires_at for undeleted lots.
func (l *Lot) IsActive(now time.Time) bool {
	return l.State(now) == LotActive
}

// IsOwnedBy reports whether profileID owns the lot. Ownerless lots have no owner.
func (l *Lot) IsOwnedBy(profileID string) bool {
	return l.OwnerID != "" && l.OwnerID == profileID
}

// CheckModifiable allows field updates only while the lot is active.
func (l *Lot) CheckModifiable(now time.Time) error {
	if st := l.State(now); st != LotActive {
		return fmt.Errorf("%w: lot is %s", ErrLotNotModifiable, st)
	}
	return nil
}

// CheckDeletable allows soft deletion only once the auction is over.
func (l *Lot) CheckDeletable(now time.Time) error {
	switch l.State(now) {
	case LotActive:
		return fmt.Errorf("%w: close the auction before removing the listing", ErrLotStillActive)
	case LotDeleted:
		return ErrLotNotFound
	}
	return nil
}

// LotChanges holds the field deltas of an update. Nil fields are untouched.
type LotChanges struct {
	Name        *string
	Description *string
	Condition   *Condition
	BasePrice   *Money
}

// IsEmpty reports whether the update carries no deltas.
func (c LotChanges) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Condition == nil && c.BasePrice == nil
}

// Apply returns a copy of l with the changes applied and modified_at stamped.
// The caller is expected to have checked CheckModifiable first.
func (l Lot) Apply(c LotChanges, now time.Time) (Lot, error) {
	if c.Name != nil {
		if err := validateLotName(*c.Name); err != nil {
			return Lot{}, err
		}
		l.Name = strings.TrimSpace(*c.Name)
	}
	if c.Description != nil {
		d := *c.Description
		l.Description = &d
	}
	if c.Condition != nil {
		if _, ok := conditionLabels[*c.Condition]; !ok {
			return Lot{}, fmt.Errorf("%w: %q", ErrInvalidCondition, *c.Condition)
		}
		l.Condition = *c.Condition
	}
	if c.BasePrice != nil {
		if c.BasePrice.Currency() == "" {
			return Lot{}, fmt.Errorf("%w: base_price", ErrMissingField)
		}
		l.BasePrice = *c.BasePrice
	}
	stamp := now.UTC()
	l.ModifiedAt = &stamp
	return l, nil
}
