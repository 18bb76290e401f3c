package staff

import "time"

// User represents a staff account.
type User struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view of a staff account.
type Profile struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Profile strips credentials from the account.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}
}
