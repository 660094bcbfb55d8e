package routing

import "sync"

// IDList is an allow/deny set of 32-bit IDs (radio IDs or talkgroup
// IDs). An empty allow list with Enabled means "permit all
// except deny".
type IDList struct {
	mu      sync.RWMutex
	Allow   map[uint32]bool
	Deny    map[uint32]bool
	Enabled bool
}

func NewIDList(enabled bool) *IDList {
	return &IDList{Allow: make(map[uint32]bool), Deny: make(map[uint32]bool), Enabled: enabled}
}

func (l *IDList) Permit(id uint32) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.Enabled {
		return true
	}
	if l.Deny[id] {
		return false
	}
	if len(l.Allow) == 0 {
		return true
	}
	return l.Allow[id]
}

// ACL runs the ordered validation chain spec.md §4.6 specifies:
// source-radio-ID → destination-radio-ID (unit-to-unit only) →
// talkgroup → registration (if VerifyReg) → affiliation (if VerifyAff).
type ACL struct {
	SourceRadios IDList
	DestRadios   IDList
	Talkgroups   IDList

	VerifyReg bool
	VerifyAff bool

	Registrations *RegistrationTable
	Affiliations  *AffiliationTable
}

func NewACL(reg *RegistrationTable, aff *AffiliationTable) *ACL {
	return &ACL{
		SourceRadios:  *NewIDList(false),
		DestRadios:    *NewIDList(false),
		Talkgroups:    *NewIDList(false),
		Registrations: reg,
		Affiliations:  aff,
	}
}

// Validate runs the full ordered chain for a call request. individual
// distinguishes unit-to-unit (dest is a radio ID) from group calls
// (dest is a talkgroup, so DestRadios is skipped).
func (a *ACL) Validate(srcID, dstID uint32, individual bool) (ReasonCode, bool) {
	if !a.SourceRadios.Permit(srcID) {
		return ReasonTSDenyRsnAclReject, false
	}
	if individual && !a.DestRadios.Permit(dstID) {
		return ReasonTSDenyRsnAclReject, false
	}
	if !individual && !a.Talkgroups.Permit(dstID) {
		return ReasonTSDenyRsnTgtGroupNotValid, false
	}
	if a.VerifyReg && a.Registrations != nil && !a.Registrations.IsRegistered(srcID) {
		return ReasonTSDenyRsnAclReject, false
	}
	if a.VerifyAff && !individual && a.Affiliations != nil && !a.Affiliations.HasAffiliation(dstID) {
		return ReasonTSDenyRsnAclReject, false
	}
	return ReasonNone, true
}
