package domain

// UserRole orders what a board member may do.
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
	UserRoleViewer UserRole = "viewer"
)

// User is a board member. Cards reference users by id.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Avatar string   `json:"avatar,omitempty"`
	Role   UserRole `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UnassignedID is the sentinel assignee used by filters for cards without one.
const UnassignedID = "unassigned"

// DefaultRoster is the fixed member list every session starts with.
func DefaultRoster() []User {
	return []User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Role: UserRoleAdmin},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Role: UserRoleMember},
		{ID: "3", Name: "Mike Johnson", Email: "mike@example.com", Role: UserRoleMember},
	}
}
