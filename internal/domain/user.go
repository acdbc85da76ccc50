package domain

import (
	"time"

	"github.com/google/uuid"
)

type MembershipTier string

const (
	TierBronze   MembershipTier = "Bronze"
	TierSilver   MembershipTier = "Silver"
	TierGold     MembershipTier = "Gold"
	TierPlatinum MembershipTier = "Platinum"
)

// DefaultTier is assigned to every new account.
const DefaultTier = TierBronze

func (t MembershipTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	default:
		return false
	}
}

type User struct {
	ID                uuid.UUID      `json:"id"`
	Email             string         `json:"email"`
	FirstName         string         `json:"firstName"`
	LastName          string         `json:"lastName"`
	Phone             *string        `json:"phone,omitempty"`
	DateOfBirth       *time.Time     `json:"dateOfBirth,omitempty"`
	Nationality       *string        `json:"nationality,omitempty"`
	PassportNumber    *string        `json:"passportNumber,omitempty"`
	PreferredServices []string       `json:"preferredServices"`
	LoyaltyPoints     int            `json:"loyaltyPoints"`
	MembershipTier    MembershipTier `json:"membershipTier"`
	IsVerified        bool           `json:"isVerified"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	LastLoginAt       *time.Time     `json:"lastLoginAt,omitempty"`
}

// Credentials pairs a user with its stored password hash. It never leaves the
// store/auth layer.
type Credentials struct {
	User         User
	PasswordHash string
}

// ProfileUpdate lists the only fields mutable through a profile update.
// Nil pointers are left untouched.
type ProfileUpdate struct {
	FirstName         *string    `json:"firstName,omitempty"`
	LastName          *string    `json:"lastName,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty"`
	Nationality       *string    `json:"nationality,omitempty"`
	PassportNumber    *string    `json:"passportNumber,omitempty"`
	PreferredServices *[]string  `json:"preferredServices,omitempty"`
}

func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil &&
		p.LastName == nil &&
		p.Phone == nil &&
		p.DateOfBirth == nil &&
		p.Nationality == nil &&
		p.PassportNumber == nil &&
		p.PreferredServices == nil
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = p.DateOfBirth
	}
	if p.Nationality != nil {
		u.Nationality = p.Nationality
	}
	if p.PassportNumber != nil {
		u.PassportNumber = p.PassportNumber
	}
	if p.PreferredServices != nil {
		u.PreferredServices = append([]string(nil), (*p.PreferredServices)...)
	}
}
