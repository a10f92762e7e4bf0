package model

// CreateUserRequest is the body of POST /user. Birthday is YYYY-MM-DD or RFC 3339.
type CreateUserRequest struct {
	FullName      string `json:"fullName"`
	CustomMessage string `json:"customMessage"`
	Birthday      string `json:"birthday"`
	Location      string `json:"location"`
	Email         string `json:"email"`
}

// DeleteUserRequest is the body of DELETE /user.
type DeleteUserRequest struct {
	FullName string `json:"fullName"`
}

// EditUserRequest is the body of PUT /user.
type EditUserRequest struct {
	FullName    string `json:"fullName"`
	NewBirthday string `json:"newBirthday"`
	Location    string `json:"location"`
	NewEmail    string `json:"newEmail"`
}
