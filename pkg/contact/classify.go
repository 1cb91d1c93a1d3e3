package contact

import "strings"

// Kind is the structural classification of a WhatsApp protocol handle.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindStandard
	KindPrivacy
	KindGroup
)

const (
	// StandardSuffix marks a handle that resolves to a real phone-number-bearing address.
	StandardSuffix = "@s.whatsapp.net"
	// PrivacySuffix marks an opaque LID handle that hides the contact's phone number.
	PrivacySuffix = "@lid"
	// GroupSuffix marks a group chat handle.
	GroupSuffix = "@g.us"
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindPrivacy:
		return "privacy"
	case KindGroup:
		return "group"
	default:
		return "unrecognized"
	}
}

// Classify inspects the domain suffix of a handle and returns its kind.
// It is total: any string maps to exactly one kind, with no network lookup.
// Check order matters, a group suffix wins over everything else.
func Classify(handle string) Kind {
	switch {
	case strings.HasSuffix(handle, GroupSuffix):
		return KindGroup
	case strings.HasSuffix(handle, PrivacySuffix):
		return KindPrivacy
	case strings.HasSuffix(handle, StandardSuffix):
		return KindStandard
	default:
		return KindUnrecognized
	}
}

// StripDeviceSuffix removes the per-device part from a handle, so
// "573001234567:49@s.whatsapp.net" becomes "573001234567@s.whatsapp.net".
// Handles without a device part are returned unchanged.
func StripDeviceSuffix(handle string) string {
	at := strings.LastIndex(handle, "@")
	if at < 0 {
		return handle
	}
	user := handle[:at]
	if colon := strings.Index(user, ":"); colon >= 0 {
		user = user[:colon]
	}
	return user + handle[at:]
}

// UserPart extracts the bare user portion of a handle: the substring before
// the domain suffix, without any device part or leading plus sign.
func UserPart(handle string) string {
	handle = StripDeviceSuffix(handle)
	if at := strings.Index(handle, "@"); at >= 0 {
		handle = handle[:at]
	}
	handle = strings.TrimPrefix(handle, "+")
	return strings.TrimSpace(handle)
}
