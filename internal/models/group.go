package models

import "time"

// GroupProfile stores per-chat configuration. Only the command prefix is
// configurable today; chats without a row fall back to the global default.
type GroupProfile struct {
	GroupID   string    `json:"group_id"`
	Prefix    string    `json:"prefix"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGroupProfile(groupID, prefix string) *GroupProfile {
	return &GroupProfile{
		GroupID:   groupID,
		Prefix:    prefix,
		CreatedAt: time.Now(),
	}
}
