package types

import "time"

// UserResponse is the outward-facing profile shape. Password hashes are
// never serialized.
type UserResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	PhoneNum  string     `json:"phone_num"`
	Address   string     `json:"address"`
	DOB       *time.Time `json:"dob"`
	Roles     []string   `json:"roles"`
}
