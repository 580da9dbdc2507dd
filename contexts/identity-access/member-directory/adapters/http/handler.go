package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"nexus/contexts/identity-access/member-directory/application"
	"nexus/contexts/identity-access/member-directory/domain/entities"
	httptransport "nexus/contexts/identity-access/member-directory/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterMemberHandler(ctx context.Context, req httptransport.RegisterMemberRequest) (httptransport.MemberResponse, error) {
	member, err := h.Service.RegisterMember(ctx, application.RegisterMemberInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        entities.Role(req.Role),
	})
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return memberResponse(member), nil
}

func (h Handler) AssignRoleHandler(ctx context.Context, memberID string, req httptransport.AssignRoleRequest) (httptransport.MemberResponse, error) {
	member, err := h.Service.AssignRole(ctx, memberID, entities.Role(req.Role))
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return memberResponse(member), nil
}

func (h Handler) GetMemberHandler(ctx context.Context, memberID string) (httptransport.MemberResponse, error) {
	member, err := h.Service.GetMember(ctx, memberID)
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return memberResponse(member), nil
}

func (h Handler) ListMembersHandler(ctx context.Context) (httptransport.ListMembersResponse, error) {
	members, err := h.Service.ListMembers(ctx)
	if err != nil {
		return httptransport.ListMembersResponse{}, err
	}
	items := make([]httptransport.MemberResponse, 0, len(members))
	for _, member := range members {
		items = append(items, memberResponse(member))
	}
	return httptransport.ListMembersResponse{Members: items}, nil
}

func memberResponse(member entities.Member) httptransport.MemberResponse {
	return httptransport.MemberResponse{
		MemberID:    member.MemberID,
		DisplayName: member.DisplayName,
		Email:       member.Email,
		Role:        string(member.Role),
		JoinedAt:    member.JoinedAt.Format(time.RFC3339),
	}
}
