package domain

type UserRole string

const (
	UserRoleConsumer UserRole = "consumer"
	UserRoleSupplier UserRole = "supplier"
)

type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Location string   `json:"location,omitempty"`
}

// Session pairs the upstream bearer token with the user it belongs to.
// A session is either fully present (token and user) or absent; anything
// partial is treated as logged out.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether the session satisfies the all-or-nothing rule.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}

// Registration carries the sign-up form fields forwarded to the
// upstream auth endpoint.
type Registration struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
	Location string   `json:"location,omitempty"`
}
