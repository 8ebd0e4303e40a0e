package models

import "time"

// ExternalIdentity is the result of a successful code exchange with an identity provider.
// SessionKey is provider session material; it is never persisted or logged.
type ExternalIdentity struct {
	SubjectID  string
	UnionID    string
	SessionKey string
}

// User is the durable local record for one provider subject.
type User struct {
	ID          int64
	SubjectID   string
	NickName    *string
	AvatarURL   *string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// LoginRequest is the client payload of the login endpoint.
// NickName and AvatarURL are accepted for compatibility but never written during login.
type LoginRequest struct {
	Code      string  `json:"code"`
	NickName  *string `json:"nickName,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// UserInfo is the profile echoed back to the client after login.
type UserInfo struct {
	ID        int64   `json:"id"`
	NickName  *string `json:"nickName"`
	AvatarURL *string `json:"avatarUrl"`
}

// LoginResult is the data part of a successful login response.
type LoginResult struct {
	Token    string   `json:"token"`
	UserID   int64    `json:"userId"`
	UserInfo UserInfo `json:"userInfo"`
}
