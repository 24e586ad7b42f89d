package domain

const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
)

// UserEvent announces a change to an account.
type UserEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
