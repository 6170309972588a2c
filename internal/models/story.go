package models

import "time"

// SuccessStory is a member's account of a farming win, with images and a
// one-level comment thread.
type SuccessStory struct {
	ID            int64     `db:"id,pk,auto" json:"id"`
	AuthorID      int64     `db:"author_id" json:"author_id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	LikesCount    int       `db:"likes_count,omitzero" json:"likes_count"`
	CommentsCount int       `db:"comments_count,omitzero" json:"comments_count"`
	CreatedAt     time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at,omitzero" json:"updated_at"`

	Images []StoryImage `db:"-" json:"images,omitempty"`
	Author *User        `db:"-" json:"author,omitempty"`
}

func (SuccessStory) TableName() string { return "success_stories" }

// StoryImage is one uploaded photo attached to a story.
type StoryImage struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	StoryID   int64     `db:"story_id" json:"story_id"`
	ImagePath string    `db:"image_path" json:"image_path"`
	Position  int       `db:"position,omitzero" json:"position"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (StoryImage) TableName() string { return "story_images" }

// StoryComment is a comment on a story. ParentID nests replies one level
// deep; replying to a reply re-attaches to the top-level parent.
type StoryComment struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	StoryID   int64     `db:"story_id" json:"story_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ParentID  *int64    `db:"parent_id" json:"parent_id,omitempty"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at,omitzero" json:"updated_at"`

	Replies []StoryComment `db:"-" json:"replies,omitempty"`
}

func (StoryComment) TableName() string { return "story_comments" }

// StoryLike is one user's like on a story; unique per (story, user).
type StoryLike struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	StoryID   int64     `db:"story_id" json:"story_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (StoryLike) TableName() string { return "story_likes" }
