package entity

type UserStatus int16

const (
	UserStatusUnknown   UserStatus = 0
	UserStatusActive    UserStatus = 1
	UserStatusSuspended UserStatus = 2
)

func (s UserStatus) String() string {
	switch s {
	case UserStatusActive:
		return "Active"
	case UserStatusSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// User is the identity record primary credentials are checked against.
type User struct {
	ID           int64
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	Status       UserStatus
}

// CanLogin reports whether the account may authenticate at all.
func (u User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// Subject projects the user onto the fields a challenge keeps.
func (u User) Subject() Subject {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}

	return Subject{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: name,
	}
}
