package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterMemberRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
}

type AssignRoleRequest struct {
	Role string `json:"role"`
}

type MemberResponse struct {
	MemberID    string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joined_at"`
}

type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}
