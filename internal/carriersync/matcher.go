package carriersync

import "strings"

// Match finds the local enrollment a portal member corresponds to.
//
// Tier 1 compares the portal member ID against client MBIs, case-insensitive.
// When the member carries an identifier and any local matches it, that match
// wins outright and the name tier is never consulted. Tier 2 falls back to an
// exact case-insensitive first+last name comparison. Both tiers scan locals
// in load order and the first hit wins; Ambiguous reports when more than one
// local tied on the name tier so callers can surface the collision.
func Match(locals []LocalEnrollment, member PortalMember) MatchResult {
	if member.MemberID != nil && *member.MemberID != "" {
		for i := range locals {
			mbi := locals[i].ClientMBI
			if mbi != nil && strings.EqualFold(*mbi, *member.MemberID) {
				return MatchResult{Enrollment: &locals[i]}
			}
		}
	}

	var result MatchResult
	for i := range locals {
		if strings.EqualFold(locals[i].ClientFirstName, member.FirstName) &&
			strings.EqualFold(locals[i].ClientLastName, member.LastName) {
			if result.Enrollment == nil {
				result.Enrollment = &locals[i]
			} else {
				result.Ambiguous = true
			}
		}
	}
	return result
}
