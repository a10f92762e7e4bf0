package model

import "time"

// DefaultBirthdayMessage is used when a user has no custom message.
const DefaultBirthdayMessage = "Happy birthday"

// User is a stored profile. FullName is the lookup key; there is no other id.
type User struct {
	FullName      string    `json:"fullName" db:"full_name"`
	CustomMessage string    `json:"customMessage" db:"custom_message"`
	Birthday      time.Time `json:"birthday" db:"birthday"`
	Location      string    `json:"location" db:"location"`
	Email         string    `json:"email" db:"email"`
}

// Message returns the custom message or the default one.
func (u User) Message() string {
	if u.CustomMessage == "" {
		return DefaultBirthdayMessage
	}
	return u.CustomMessage
}

// UserUpdate carries the mutable fields of an edit. CustomMessage is immutable.
type UserUpdate struct {
	FullName string
	Birthday time.Time
	Location string
	Email    string
}

// UpdateResult is what the repository reports for an edit.
type UpdateResult struct {
	Affected int64
	Previous User // stored row before the edit, valid when Affected == 1
	Current  User // stored row after the edit, valid when Affected == 1
}
