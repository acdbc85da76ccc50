package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipTier_Valid(t *testing.T) {
	for _, tier := range []MembershipTier{TierBronze, TierSilver, TierGold, TierPlatinum} {
		assert.True(t, tier.Valid(), tier)
	}
	assert.False(t, MembershipTier("Diamond").Valid())
	assert.False(t, MembershipTier("").Valid())
	assert.True(t, DefaultTier.Valid())
}

func TestProfileUpdate_Apply(t *testing.T) {
	u := User{Email: "alice@example.com", FirstName: "Alice"}
	name := "Alicia"
	services := []string{"Flights", "Visa"}

	assert.True(t, ProfileUpdate{}.Empty())

	upd := ProfileUpdate{FirstName: &name, PreferredServices: &services}
	assert.False(t, upd.Empty())
	upd.Apply(&u)

	assert.Equal(t, "Alicia", u.FirstName)
	assert.Equal(t, []string{"Flights", "Visa"}, u.PreferredServices)
	assert.Equal(t, "alice@example.com", u.Email)
}
