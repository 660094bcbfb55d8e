package routing

import "testing"

func TestACLValidateOrderSourceBeforeTalkgroup(t *testing.T) {
	reg := NewRegistrationTable()
	aff := NewAffiliationTable()
	acl := NewACL(reg, aff)
	acl.SourceRadios.Enabled = true
	acl.SourceRadios.Deny[10] = true
	acl.Talkgroups.Enabled = true
	acl.Talkgroups.Deny[100] = true

	code, ok := acl.Validate(10, 100, false)
	if ok || code != ReasonTSDenyRsnAclReject {
		t.Fatalf("expected source-radio denial to take priority, got %v %v", code, ok)
	}
}

func TestACLValidateTalkgroupDenial(t *testing.T) {
	reg := NewRegistrationTable()
	aff := NewAffiliationTable()
	acl := NewACL(reg, aff)
	acl.Talkgroups.Enabled = true
	acl.Talkgroups.Deny[100] = true

	code, ok := acl.Validate(10, 100, false)
	if ok || code != ReasonTSDenyRsnTgtGroupNotValid {
		t.Fatalf("expected TG denial, got %v %v", code, ok)
	}
}

func TestACLValidateRegistrationCheck(t *testing.T) {
	reg := NewRegistrationTable()
	aff := NewAffiliationTable()
	acl := NewACL(reg, aff)
	acl.VerifyReg = true

	code, ok := acl.Validate(10, 100, false)
	if ok {
		t.Fatalf("expected registration check to deny unregistered radio, got %v", code)
	}

	reg.Register(10, 1)
	if _, ok := acl.Validate(10, 100, false); !ok {
		t.Fatal("expected registered radio to pass")
	}
}

func TestACLValidateAffiliationCheck(t *testing.T) {
	reg := NewRegistrationTable()
	aff := NewAffiliationTable()
	acl := NewACL(reg, aff)
	acl.VerifyAff = true

	if _, ok := acl.Validate(10, 100, false); ok {
		t.Fatal("expected affiliation check to deny an unaffiliated TG")
	}

	aff.Affiliate(1, 100)
	if _, ok := acl.Validate(10, 100, false); !ok {
		t.Fatal("expected affiliated TG to pass")
	}
}

func TestIDListDefaultPermitsWhenDisabled(t *testing.T) {
	l := NewIDList(false)
	if !l.Permit(12345) {
		t.Fatal("a disabled list should permit everything")
	}
}

func TestChannelPoolAcquireReleaseRoundTrip(t *testing.T) {
	pool := NewChannelPool([]Channel{{ID: 1}, {ID: 2}})
	c1, ok := pool.Acquire()
	if !ok {
		t.Fatal("expected a free channel")
	}
	if pool.Available() != 1 {
		t.Fatalf("expected 1 available, got %d", pool.Available())
	}
	pool.Release(c1)
	if pool.Available() != 2 {
		t.Fatalf("expected 2 available after release, got %d", pool.Available())
	}
}

func TestAffiliationTableRemovePeerWipesAllTGs(t *testing.T) {
	a := NewAffiliationTable()
	a.Affiliate(1, 100)
	a.Affiliate(1, 200)
	a.Affiliate(2, 100)

	a.RemovePeer(1)
	if a.HasAffiliation(200) {
		t.Fatal("TG 200 had only peer 1; should have no affiliation left")
	}
	if !a.HasAffiliation(100) {
		t.Fatal("TG 100 still has peer 2 affiliated")
	}
}
