package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		handle string
		want   Kind
	}{
		{"573001234567@s.whatsapp.net", KindStandard},
		{"123456789012345@lid", KindPrivacy},
		{"120363025246125486@g.us", KindGroup},
		{"573001234567@broadcast", KindUnrecognized},
		{"status@broadcast", KindUnrecognized},
		{"573001234567", KindUnrecognized},
		{"", KindUnrecognized},
		{"@g.us", KindGroup},
		{"weird@lid@g.us", KindGroup},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.handle), "handle %q", tc.handle)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// Any string must map to exactly one of the four kinds without panicking.
	for _, s := range []string{"", " ", "@", "@@", "\x00", "ñ@lid", "a@s.whatsapp.net "} {
		k := Classify(s)
		assert.Contains(t, []Kind{KindUnrecognized, KindStandard, KindPrivacy, KindGroup}, k)
	}
}

func TestStripDeviceSuffix(t *testing.T) {
	assert.Equal(t, "573001234567@s.whatsapp.net", StripDeviceSuffix("573001234567:49@s.whatsapp.net"))
	assert.Equal(t, "573001234567@s.whatsapp.net", StripDeviceSuffix("573001234567@s.whatsapp.net"))
	assert.Equal(t, "no-at-sign", StripDeviceSuffix("no-at-sign"))
}

func TestUserPart(t *testing.T) {
	assert.Equal(t, "573001234567", UserPart("573001234567@s.whatsapp.net"))
	assert.Equal(t, "573001234567", UserPart("+573001234567:12@s.whatsapp.net"))
	assert.Equal(t, "raw", UserPart("raw"))
}
