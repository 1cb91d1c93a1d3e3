package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStandardHandle(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("573001234567@s.whatsapp.net", "", "")
	require.NoError(t, err)
	assert.Equal(t, "+57 300 123 4567", id.CanonicalID)
	assert.Equal(t, "+57 300 123 4567", id.PhoneNumber)
	assert.Equal(t, "573001234567@s.whatsapp.net", id.SendHandle)
	assert.Equal(t, KindStandard, id.Kind)
	assert.False(t, id.IsGroup)
}

func TestResolveAlternateOverridesPrivacyHandle(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("12345@lid", "573001234567@s.whatsapp.net", "")
	require.NoError(t, err)
	assert.Equal(t, "+57 300 123 4567", id.CanonicalID)
	assert.Equal(t, "573001234567@s.whatsapp.net", id.SendHandle)
	assert.Equal(t, KindStandard, id.Kind)
}

func TestResolvePrivacyHandleWithoutAlternate(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("123456789012345@lid", "", "")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345@lid", id.CanonicalID)
	assert.Empty(t, id.PhoneNumber)
	assert.Equal(t, "123456789012345@lid", id.SendHandle)
	assert.Equal(t, KindPrivacy, id.Kind)
}

func TestResolvePrivacyAlternateIsIgnored(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("123456789012345@lid", "99999@lid", "")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345@lid", id.CanonicalID)
	assert.Equal(t, KindPrivacy, id.Kind)
}

func TestResolveUnknownCountryFallsBackToBareDigits(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("9999999999@s.whatsapp.net", "", "")
	require.NoError(t, err)
	assert.Equal(t, "+9999999999", id.CanonicalID)
	assert.Empty(t, id.PhoneNumber)
}

func TestResolveInvalidLength(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	_, err := r.Resolve("12345678@s.whatsapp.net", "", "")
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = r.Resolve("1234567890123456@s.whatsapp.net", "", "")
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestResolveUnsupportedHandle(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	for _, handle := range []string{"status@broadcast", "573001234567", ""} {
		_, err := r.Resolve(handle, "", "")
		assert.ErrorIs(t, err, ErrUnsupportedHandle, "handle %q", handle)
	}
}

func TestResolveGroup(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("120363025246125486@g.us", "", "")
	require.NoError(t, err)
	assert.True(t, id.IsGroup)
	assert.Empty(t, id.PhoneNumber)
	assert.Equal(t, "120363025246125486@g.us", id.CanonicalID)
	assert.Equal(t, "120363025246125486@g.us", id.SendHandle)
	assert.Equal(t, KindGroup, id.Kind)
}

func TestResolveStripsDevicePart(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("573001234567:49@s.whatsapp.net", "", "")
	require.NoError(t, err)
	assert.Equal(t, "+57 300 123 4567", id.CanonicalID)
	assert.Equal(t, "573001234567@s.whatsapp.net", id.SendHandle)
}

func TestResolveParticipantHintAsFallbackAlternate(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	id, err := r.Resolve("12345@lid", "", "573001234567@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "+57 300 123 4567", id.CanonicalID)
	assert.Equal(t, "573001234567@s.whatsapp.net", id.SendHandle)
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver(PolicyPreferPhone)
	pairs := [][2]string{
		{"573001234567@s.whatsapp.net", ""},
		{"12345@lid", "573001234567@s.whatsapp.net"},
		{"123456789012345@lid", ""},
		{"120363025246125486@g.us", ""},
		{"9999999999@s.whatsapp.net", ""},
	}
	for _, p := range pairs {
		first, err1 := r.Resolve(p[0], p[1], "")
		second, err2 := r.Resolve(p[0], p[1], "")
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first, second, "resolve(%q, %q) must be stable", p[0], p[1])
	}
}

func TestResolveOpaqueOnlyPolicy(t *testing.T) {
	r := NewResolver(PolicyOpaqueOnly)

	id, err := r.Resolve("573001234567@s.whatsapp.net", "", "")
	require.NoError(t, err)
	assert.Equal(t, "573001234567@s.whatsapp.net", id.CanonicalID)
	assert.Empty(t, id.PhoneNumber)

	// The opaque ID stays on the primary handle even when an alternate
	// exposes a phone number, but the alternate still wins as send handle.
	id, err = r.Resolve("12345@lid", "573001234567@s.whatsapp.net", "")
	require.NoError(t, err)
	assert.Equal(t, "12345@lid", id.CanonicalID)
	assert.Equal(t, "573001234567@s.whatsapp.net", id.SendHandle)
	assert.Empty(t, id.PhoneNumber)
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyOpaqueOnly, ParsePolicy("opaque_only"))
	assert.Equal(t, PolicyOpaqueOnly, ParsePolicy(" Opaque_Only "))
	assert.Equal(t, PolicyPreferPhone, ParsePolicy("prefer_phone"))
	assert.Equal(t, PolicyPreferPhone, ParsePolicy(""))
	assert.Equal(t, PolicyPreferPhone, ParsePolicy("nonsense"))
}
