package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sshcollectorpro/consoleprov/internal/model"
)

func TestGateFullPolicy(t *testing.T) {
	g := NewGate(model.MatchPolicyFull)

	assert.True(t, g.Verify("RFTX1840ALBQ", "FTX1840ALBQ"))
	assert.False(t, g.Verify("RFTX1840ALBQ", "FTX1840ALBX"))
	assert.False(t, g.Verify("RFTX1840", "FTX1840ALBQ"))
	assert.False(t, g.Verify("RFTX1840ALBQ", model.UnknownSerial))
	assert.False(t, g.Verify("RFTX1840ALBQ", ""))
	assert.False(t, g.Verify("", "FTX1840ALBQ"))
}

func TestGatePrefix6Policy(t *testing.T) {
	g := NewGate(model.MatchPolicyPrefix6)

	assert.True(t, g.Verify("RFTX184", "FTX1840ALBQ"))
	assert.False(t, g.Verify("RFTX1840ALBQ", "FTX1840ALBQ"))
	assert.True(t, g.Verify("SABC", "ABC"))
}

func TestGateUnknownPolicyFallsBackToFull(t *testing.T) {
	assert.Equal(t, model.MatchPolicyFull, NewGate("fuzzy").Policy())
}

func TestGateCheckReasons(t *testing.T) {
	g := NewGate(model.MatchPolicyFull)

	assert.True(t, errors.Is(g.Check("RFTX1", model.UnknownSerial), ErrNoIdentity))
	err := g.Check("RFTX1", "FTX2")
	assert.True(t, errors.Is(err, ErrIdentityMismatch))
	assert.Contains(t, err.Error(), "FTX2")
	assert.NoError(t, g.Check("RFTX1", "FTX1"))
}

func TestDerivedHostnameAlwaysPassesGate(t *testing.T) {
	for _, policy := range []string{model.MatchPolicyFull, model.MatchPolicyPrefix6} {
		g := NewGate(policy)
		for _, sn := range []string{"FTX1840ALBQ", "FOC1234X0AB", "ABC"} {
			host := model.DeriveHostname("Switch-A", sn, policy)
			assert.True(t, g.Verify(host, sn), "policy=%s serial=%s", policy, sn)
		}
	}
}
