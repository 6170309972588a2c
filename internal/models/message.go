package models

import "time"

// CommunityMessage is a post on the community board.
type CommunityMessage struct {
	ID           int64     `db:"id,pk,auto" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Content      string    `db:"content" json:"content"`
	LikesCount   int       `db:"likes_count,omitzero" json:"likes_count"`
	RepliesCount int       `db:"replies_count,omitzero" json:"replies_count"`
	CreatedAt    time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at,omitzero" json:"updated_at"`

	Attachments []MessageAttachment `db:"-" json:"attachments,omitempty"`
}

func (CommunityMessage) TableName() string { return "community_messages" }

// MessageAttachment is an uploaded file on a message.
type MessageAttachment struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	MessageID int64     `db:"message_id" json:"message_id"`
	FilePath  string    `db:"file_path" json:"file_path"`
	FileName  string    `db:"file_name" json:"file_name"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (MessageAttachment) TableName() string { return "message_attachments" }

// MessageReply is a threaded reply to a message. Depth is parent depth + 1,
// computed by walking parent pointers at insert time; top level is 0.
type MessageReply struct {
	ID            int64     `db:"id,pk,auto" json:"id"`
	MessageID     int64     `db:"message_id" json:"message_id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	ParentReplyID *int64    `db:"parent_reply_id" json:"parent_reply_id,omitempty"`
	Content       string    `db:"content" json:"content"`
	LikesCount    int       `db:"likes_count,omitzero" json:"likes_count"`
	Depth         int       `db:"depth,omitzero" json:"depth"`
	CreatedAt     time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at,omitzero" json:"updated_at"`

	Children []MessageReply `db:"-" json:"children,omitempty"`
}

func (MessageReply) TableName() string { return "message_replies" }

// MessageLike is one user's like on a message; unique per (message, user).
type MessageLike struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	MessageID int64     `db:"message_id" json:"message_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (MessageLike) TableName() string { return "message_likes" }

// ReplyLike is one user's like on a reply; unique per (reply, user).
type ReplyLike struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	ReplyID   int64     `db:"reply_id" json:"reply_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (ReplyLike) TableName() string { return "reply_likes" }
