package models

import "time"

// Well-known staff groups. Rows are seeded by database.SeedGroups.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery crew"
)

// Group is a named role that users can belong to.
type Group struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(150);uniqueIndex;not null" json:"name"`
}

// User is an account that can authenticate against the API.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	FirstName  string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName   string    `gorm:"type:varchar(150)" json:"last_name"`
	Email      string    `gorm:"type:varchar(254)" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	IsStaff    bool      `gorm:"not null;default:false" json:"-"`
	Groups     []Group   `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE" json:"groups"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"-"`
}

// InGroup reports whether the (preloaded) groups contain name.
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Password  string `json:"password" binding:"required,min=8"`
	Email     string `json:"email" binding:"omitempty,email"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// LoginRequest is the payload for obtaining a token pair.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RosterRequest adds a user to a staff group by username.
type RosterRequest struct {
	Username string `json:"username"`
}
