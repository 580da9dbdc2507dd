package unit

import (
	"context"
	"errors"
	"testing"

	memberdirectory "nexus/contexts/identity-access/member-directory"
	domainerrors "nexus/contexts/identity-access/member-directory/domain/errors"
	httptransport "nexus/contexts/identity-access/member-directory/transport/http"
)

func TestMemberRegistrationAndRoles(t *testing.T) {
	module := memberdirectory.NewInMemoryModule(nil)

	registered, err := module.Handler.RegisterMemberHandler(context.Background(), httptransport.RegisterMemberRequest{
		DisplayName: "Ada Lovelace",
		Email:       "ada@club.example",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if registered.Role != "member" {
		t.Fatalf("expected default member role, got %s", registered.Role)
	}

	// Email uniqueness is case-insensitive.
	_, err = module.Handler.RegisterMemberHandler(context.Background(), httptransport.RegisterMemberRequest{
		DisplayName: "Imposter",
		Email:       "ADA@club.example",
	})
	if !errors.Is(err, domainerrors.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}

	promoted, err := module.Handler.AssignRoleHandler(context.Background(), registered.MemberID, httptransport.AssignRoleRequest{
		Role: "president",
	})
	if err != nil {
		t.Fatalf("assign role failed: %v", err)
	}
	if promoted.Role != "president" {
		t.Fatalf("expected president role, got %s", promoted.Role)
	}

	_, err = module.Handler.AssignRoleHandler(context.Background(), registered.MemberID, httptransport.AssignRoleRequest{
		Role: "emperor",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}

	fetched, err := module.Handler.GetMemberHandler(context.Background(), registered.MemberID)
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if fetched.Role != "president" {
		t.Fatalf("expected persisted role change, got %s", fetched.Role)
	}

	list, err := module.Handler.ListMembersHandler(context.Background())
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if len(list.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(list.Members))
	}
}

func TestGetUnknownMember(t *testing.T) {
	module := memberdirectory.NewInMemoryModule(nil)

	_, err := module.Handler.GetMemberHandler(context.Background(), "ghost")
	if !errors.Is(err, domainerrors.ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
}
