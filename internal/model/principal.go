package model

type Principal struct {
	UserID string
	Email  string
	Role   string
}

func (p Principal) IsValid() bool {
	return p.UserID != ""
}
