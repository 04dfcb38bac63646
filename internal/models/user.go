package models

import "time"

// Roles understood by the authorization gate.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// User is the stored identity record. ID is the lookup key and never changes.
type User struct {
	ID                  string     `bson:"_id" json:"id"`
	Username            string     `bson:"username" json:"username"`
	Email               string     `bson:"email" json:"email"`
	PasswordHash        string     `bson:"passwordHash" json:"-"`
	Role                string     `bson:"role" json:"role"`
	IsTemporaryPassword bool       `bson:"isTemporaryPassword" json:"isTemporaryPassword"`
	RegisteredAt        time.Time  `bson:"registeredAt" json:"registeredAt"`
	LastUpdatedAt       time.Time  `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
	LastLoginAt         *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	IsActive            bool       `bson:"isActive" json:"isActive"`
}

// Roles returns the role set carried into issued tokens.
func (u *User) Roles() []string {
	if u.Role == "" {
		return nil
	}
	return []string{u.Role}
}
