package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProjectMembership(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	p := &Project{
		Owner:      owner,
		MaxMembers: 2,
		IsActive:   true,
		Visibility: VisibilityPrivate,
		Members: []Member{
			{User: owner, Role: RoleOwner},
		},
	}

	if !p.IsOwner(owner) || p.IsOwner(member) {
		t.Error("IsOwner mismatch")
	}
	if !p.IsMember(owner) {
		t.Error("owner should be a member")
	}
	if p.IsFull() {
		t.Error("project with 1/2 members should not be full")
	}

	p.Members = append(p.Members, Member{User: member, Role: RoleMember})
	if !p.IsFull() {
		t.Error("project with 2/2 members should be full")
	}
	if !p.VisibleTo(&member) {
		t.Error("member should see private project")
	}
	if p.VisibleTo(&stranger) || p.VisibleTo(nil) {
		t.Error("non-member should not see private project")
	}

	p.IsActive = false
	if p.VisibleTo(&owner) {
		t.Error("inactive project should be hidden")
	}
}

func TestStatusRules(t *testing.T) {
	tests := []struct {
		status  ProjectStatus
		valid   bool
		accepts bool
	}{
		{StatusPlanned, true, true},
		{StatusPending, true, true},
		{StatusOngoing, true, true},
		{StatusOnHold, true, true},
		{StatusCompleted, true, false},
		{StatusCancelled, true, false},
		{ProjectStatus("archived"), false, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.IsValid(); got != tc.valid {
				t.Errorf("IsValid() = %v, want %v", got, tc.valid)
			}
			if got := tc.status.AcceptsMembers(); got != tc.accepts {
				t.Errorf("AcceptsMembers() = %v, want %v", got, tc.accepts)
			}
		})
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	if PairKey(a, b) != PairKey(b, a) {
		t.Errorf("pair key differs by order: %s vs %s", PairKey(a, b), PairKey(b, a))
	}
	lo, hi := SortedPair(b, a)
	if lo.Hex() > hi.Hex() {
		t.Error("SortedPair did not order ids")
	}

	c := &Chat{Participants: []primitive.ObjectID{lo, hi}}
	if c.Other(a) != b || c.Other(b) != a {
		t.Error("Other returned the wrong participant")
	}
}

func TestPagination(t *testing.T) {
	page, limit := NormalizePage(0, 0)
	if page != 1 || limit != DefaultPageSize {
		t.Errorf("NormalizePage(0,0) = %d,%d", page, limit)
	}
	_, limit = NormalizePage(2, 500)
	if limit != MaxPageSize {
		t.Errorf("limit should clamp to %d, got %d", MaxPageSize, limit)
	}

	p := NewPagination(2, 10, 21)
	if p.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", p.TotalPages)
	}
	if NewPagination(1, 10, 0).TotalPages != 0 {
		t.Error("expected 0 pages for empty result")
	}
}
