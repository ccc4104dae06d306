package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/parleyhq/parley/pkg/constant"
)

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// DerivePairingKey derives the canonical key for a person-to-person
// conversation. The two subject ids are sorted lexicographically and joined
// with "::" so the key is order-independent.
// Format: dm::{min(a,b)}::{max(a,b)}
func DerivePairingKey(subjectA, subjectB string) string {
	subjects := []string{subjectA, subjectB}
	sort.Strings(subjects)
	return fmt.Sprintf("%s%s%s%s", constant.PersonalPairingPrefix,
		subjects[0], constant.PairingSeparator, subjects[1])
}

// DeriveOrgPairingKey derives the key for an organization-mediated
// conversation. The organization id namespaces the key so the same two people
// can hold one personal conversation and one org-mediated conversation
// without collision.
// Format: org:{orgId}::{min(a,b)}::{max(a,b)}
func DeriveOrgPairingKey(orgId, subjectA, subjectB string) string {
	subjects := []string{subjectA, subjectB}
	sort.Strings(subjects)
	return fmt.Sprintf("%s%s%s%s%s%s", constant.OrgPairingPrefix, orgId,
		constant.PairingSeparator, subjects[0], constant.PairingSeparator, subjects[1])
}

// IsOrgPairingKey checks if a pairing key is organization-namespaced
func IsOrgPairingKey(pairingKey string) bool {
	return strings.HasPrefix(pairingKey, constant.OrgPairingPrefix)
}

// pairingSubjects extracts the two participant subject ids from a pairing key.
// Returns ok=false for a malformed key.
func pairingSubjects(pairingKey string) (string, string, bool) {
	var rest string
	switch {
	case strings.HasPrefix(pairingKey, constant.PersonalPairingPrefix):
		rest = pairingKey[len(constant.PersonalPairingPrefix):]
	case strings.HasPrefix(pairingKey, constant.OrgPairingPrefix):
		body := pairingKey[len(constant.OrgPairingPrefix):]
		idx := strings.Index(body, constant.PairingSeparator)
		if idx < 0 {
			return "", "", false
		}
		rest = body[idx+len(constant.PairingSeparator):]
	default:
		return "", "", false
	}

	idx := strings.Index(rest, constant.PairingSeparator)
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+len(constant.PairingSeparator):], true
}

// PairingKeyContains checks whether a subject is one of the two parties
// encoded in a pairing key.
func PairingKeyContains(pairingKey, subjectId string) bool {
	a, b, ok := pairingSubjects(pairingKey)
	if !ok {
		return false
	}
	return a == subjectId || b == subjectId
}

// PairingKeyPartner returns the counterpart subject for the given subject.
// Returns empty string if the subject is not a party to the key.
func PairingKeyPartner(pairingKey, subjectId string) string {
	a, b, ok := pairingSubjects(pairingKey)
	if !ok {
		return ""
	}
	switch subjectId {
	case a:
		return b
	case b:
		return a
	default:
		return ""
	}
}

// PairingKeyOrgId returns the namespacing organization id, or empty for a
// personal conversation key.
func PairingKeyOrgId(pairingKey string) string {
	if !strings.HasPrefix(pairingKey, constant.OrgPairingPrefix) {
		return ""
	}
	body := pairingKey[len(constant.OrgPairingPrefix):]
	idx := strings.Index(body, constant.PairingSeparator)
	if idx < 0 {
		return ""
	}
	return body[:idx]
}
