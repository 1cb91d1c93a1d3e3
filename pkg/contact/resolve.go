package contact

import (
	"errors"
	"strings"
)

var (
	ErrUnsupportedHandle = errors.New("handle has no recognized domain suffix")
	ErrInvalidLength     = errors.New("extracted phone number length is outside 10-15 digits")
)

// Policy selects the resolution strategy. The source system flip-flopped
// between extracting real phone numbers and keeping opaque protocol handles
// as identities, so the choice is a constructor flag rather than two
// parallel resolvers.
type Policy int

const (
	// PolicyPreferPhone extracts and formats a real phone number whenever one
	// of the envelope's handles exposes it. Most complete behavior.
	PolicyPreferPhone Policy = iota
	// PolicyOpaqueOnly never extracts phone numbers. The primary handle is
	// the identity, verbatim. Immune to duplicate-contact bugs, blind to
	// phone numbers.
	PolicyOpaqueOnly
)

// ParsePolicy maps a config string to a Policy, defaulting to prefer_phone.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "opaque_only") {
		return PolicyOpaqueOnly
	}
	return PolicyPreferPhone
}

// Identity is the resolved, stable representation of one contact.
type Identity struct {
	// CanonicalID is globally unique for this contact across the bridge's
	// lifetime: a formatted phone number, a "+<digits>" fallback, or the
	// opaque handle itself. Pure function of the input handles.
	CanonicalID string
	// PhoneNumber is only set when a real number was established.
	PhoneNumber string
	// SendHandle is the protocol handle replies must be addressed to. It may
	// differ from the inbound primary handle when an alternate handle
	// exposed the real address.
	SendHandle string
	Kind       Kind
	IsGroup    bool
}

type Resolver struct {
	policy Policy
}

func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// Resolve derives exactly one Identity from the candidate handles of a single
// envelope. It is deterministic: the same (primary, alternate) pair always
// yields the same Identity, independent of call order or external state.
// The participant hint only steps in when no alternate handle is present.
//
// Resolution errors mean the envelope must be dropped and logged, never
// retried and never allowed to crash the processing loop.
func (r *Resolver) Resolve(primary, alternate, participant string) (Identity, error) {
	primary = StripDeviceSuffix(strings.TrimSpace(primary))

	kind := Classify(primary)
	if kind == KindUnrecognized {
		return Identity{}, ErrUnsupportedHandle
	}

	if kind == KindGroup {
		// Groups are never decomposed into individual contacts here.
		return Identity{
			CanonicalID: primary,
			SendHandle:  primary,
			Kind:        KindGroup,
			IsGroup:     true,
		}, nil
	}

	alternate = StripDeviceSuffix(strings.TrimSpace(alternate))
	if alternate == "" {
		alternate = StripDeviceSuffix(strings.TrimSpace(participant))
	}
	altKind := Classify(alternate)
	altUsable := alternate != "" && altKind != KindPrivacy && altKind != KindUnrecognized

	if r.policy == PolicyOpaqueOnly {
		identity := Identity{
			CanonicalID: primary,
			SendHandle:  primary,
			Kind:        kind,
		}
		if altUsable {
			identity.SendHandle = alternate
		}
		return identity, nil
	}

	var digits, sendHandle string
	resolvedKind := kind
	switch {
	case altUsable:
		// The privacy scheme hides the real number on the primary handle;
		// when the protocol surfaces it through a secondary field, that
		// field wins.
		digits = UserPart(alternate)
		sendHandle = alternate
		resolvedKind = altKind
	case kind == KindStandard:
		digits = UserPart(primary)
		sendHandle = primary
	default:
		// Privacy handle with no usable alternate: the opaque handle is the
		// identity. Terminal, no extraction attempted.
		return Identity{
			CanonicalID: primary,
			SendHandle:  primary,
			Kind:        KindPrivacy,
		}, nil
	}

	if len(digits) < 10 || len(digits) > 15 {
		return Identity{}, ErrInvalidLength
	}

	identity := Identity{
		SendHandle: sendHandle,
		Kind:       resolvedKind,
	}
	if formatted, err := Format(digits); err == nil {
		identity.PhoneNumber = formatted.Display
		identity.CanonicalID = formatted.Display
	} else {
		// Bare fallback. The leading "+" is part of the canonical form
		// contract, raw unformatted digits never leave this package.
		identity.CanonicalID = "+" + digits
	}
	return identity, nil
}
