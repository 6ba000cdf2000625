package inventory

// UserIdentity adapts an AppUser into the Identity interface for token
// generation.
type UserIdentity struct {
	user *AppUser
}

var _ Identity = UserIdentity{}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *AppUser) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's role as a string.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return string(u.user.Role)
}

// IsApproved is read by the access gate; tokens are issued for pending
// accounts too so they can reach the restricted page.
func (u UserIdentity) IsApproved() bool {
	return u.user != nil && u.user.IsApproved
}
