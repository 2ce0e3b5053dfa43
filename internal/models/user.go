package models

// SystemRole is the platform-wide role carried by a verified caller.
type SystemRole string

// System roles. Admins and brokers may act on any NDA or data room; everyone
// else is scoped to resources where they are buyer, seller or room member.
const (
	RoleAdmin  SystemRole = "admin"
	RoleBroker SystemRole = "broker"
	RoleUser   SystemRole = "user"
)

// Privileged reports whether the role bypasses participant scoping.
func (r SystemRole) Privileged() bool {
	return r == RoleAdmin || r == RoleBroker
}

// User represents a platform account (buyer, seller or staff).
type User struct {
	BaseModel

	Email    string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name     string     `gorm:"type:varchar(255)" json:"name"`
	Password string     `gorm:"type:varchar(255);not null" json:"-"`
	Role     SystemRole `gorm:"type:varchar(32);not null;default:'user'" json:"role"`
}
