package models

// UserProfile carries the user attributes the analytics layer reads
type UserProfile struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	BirthDate string   `json:"birth_date,omitempty"`
	Height    *float64 `json:"height,omitempty"` // centimetres
}

// HeightMetres returns the height in metres when a positive height is set
func (p *UserProfile) HeightMetres() (float64, bool) {
	if p == nil || p.Height == nil || *p.Height <= 0 {
		return 0, false
	}
	return *p.Height / 100, true
}
