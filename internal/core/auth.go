package core

import "strings"

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

type (
	// Profile is the signed-in user as returned by the auth endpoints.
	Profile struct {
		ID              string `json:"_id,omitempty"`
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		BusinessName    string `json:"businessName,omitempty"`
		BusinessAddress string `json:"businessAddress,omitempty"`
		BusinessPhone   string `json:"businessPhone,omitempty"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SignupRequest struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"-"`
		BusinessName    string `json:"businessName,omitempty"`
		BusinessAddress string `json:"businessAddress,omitempty"`
		BusinessPhone   string `json:"businessPhone,omitempty"`
	}

	ProfileUpdate struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		BusinessName    string `json:"businessName"`
		BusinessAddress string `json:"businessAddress"`
		BusinessPhone   string `json:"businessPhone"`
	}

	// AuthResult is a token together with the user it was issued for.
	AuthResult struct {
		Token   string
		Profile Profile
	}
)

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return invalid("credentials", "Please enter email and password")
	}
	return nil
}

func (r SignupRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" || strings.TrimSpace(r.Email) == "" ||
		r.Password == "" || r.ConfirmPassword == "" {
		return invalid("required", "Please fill in all required fields")
	}
	if !strings.Contains(r.Email, "@") {
		return invalid("email", "Please enter a valid email")
	}
	if len(r.Password) < MinPasswordLength {
		return invalid("password", "Password must be at least 6 characters long")
	}
	if r.Password != r.ConfirmPassword {
		return invalid("confirm", "Passwords do not match")
	}
	return nil
}

func (u ProfileUpdate) Validate() error {
	if strings.TrimSpace(u.FullName) == "" || strings.TrimSpace(u.Email) == "" {
		return invalid("required", "Name and email are required")
	}
	if !strings.Contains(u.Email, "@") {
		return invalid("email", "Please enter a valid email")
	}
	return nil
}

// UpdateFrom returns a profile update seeded with the current values.
func UpdateFrom(p Profile) ProfileUpdate {
	return ProfileUpdate{
		FullName:        p.FullName,
		Email:           p.Email,
		BusinessName:    p.BusinessName,
		BusinessAddress: p.BusinessAddress,
		BusinessPhone:   p.BusinessPhone,
	}
}
