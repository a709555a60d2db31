package token

// Role is the authorization level carried inside a token. Exactly two values
// exist; anything else makes the token invalid.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the minimal authenticated principal encoded in a token and
// attached to a request for its lifetime only.
type Identity struct {
	UID  string
	Role Role
}
