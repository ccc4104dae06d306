package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePairingKeySymmetric(t *testing.T) {
	k1 := DerivePairingKey("alice", "bob")
	k2 := DerivePairingKey("bob", "alice")
	assert.Equal(t, k1, k2)
	assert.Equal(t, "dm::alice::bob", k1)
}

func TestDeriveOrgPairingKeySymmetric(t *testing.T) {
	k1 := DeriveOrgPairingKey("acme", "bob", "alice")
	k2 := DeriveOrgPairingKey("acme", "alice", "bob")
	assert.Equal(t, k1, k2)
	assert.Equal(t, "org:acme::alice::bob", k1)
}

func TestOrgAndPersonalKeysDoNotCollide(t *testing.T) {
	personal := DerivePairingKey("alice", "bob")
	org := DeriveOrgPairingKey("acme", "alice", "bob")
	assert.NotEqual(t, personal, org)

	// Distinct organizations namespace distinct conversations for the
	// same pair.
	other := DeriveOrgPairingKey("globex", "alice", "bob")
	assert.NotEqual(t, org, other)
}

func TestIsOrgPairingKey(t *testing.T) {
	assert.False(t, IsOrgPairingKey(DerivePairingKey("alice", "bob")))
	assert.True(t, IsOrgPairingKey(DeriveOrgPairingKey("acme", "alice", "bob")))
}

func TestPairingKeyContains(t *testing.T) {
	key := DerivePairingKey("alice", "bob")
	assert.True(t, PairingKeyContains(key, "alice"))
	assert.True(t, PairingKeyContains(key, "bob"))
	assert.False(t, PairingKeyContains(key, "mallory"))
	assert.False(t, PairingKeyContains("garbage", "alice"))
}

func TestPairingKeyPartner(t *testing.T) {
	key := DerivePairingKey("alice", "bob")
	assert.Equal(t, "bob", PairingKeyPartner(key, "alice"))
	assert.Equal(t, "alice", PairingKeyPartner(key, "bob"))
	assert.Equal(t, "", PairingKeyPartner(key, "mallory"))

	orgKey := DeriveOrgPairingKey("acme", "alice", "bob")
	assert.Equal(t, "bob", PairingKeyPartner(orgKey, "alice"))
	assert.Equal(t, "alice", PairingKeyPartner(orgKey, "bob"))
}

func TestPairingKeyOrgId(t *testing.T) {
	assert.Equal(t, "", PairingKeyOrgId(DerivePairingKey("alice", "bob")))
	assert.Equal(t, "acme", PairingKeyOrgId(DeriveOrgPairingKey("acme", "alice", "bob")))
}
