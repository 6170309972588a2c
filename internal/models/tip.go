package models

import "time"

// TipCategory groups farming tips by theme.
type TipCategory struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (TipCategory) TableName() string { return "tip_categories" }

// Tip is a farming advice article written by an expert.
type Tip struct {
	ID         int64     `db:"id,pk,auto" json:"id"`
	AuthorID   int64     `db:"author_id" json:"author_id"`
	CategoryID int64     `db:"category_id" json:"category_id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	ImagePath  string    `db:"image_path,omitzero" json:"image_path,omitempty"`
	ViewsCount int       `db:"views_count,omitzero" json:"views_count"`
	LikesCount int       `db:"likes_count,omitzero" json:"likes_count"`
	CreatedAt  time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at,omitzero" json:"updated_at"`
}

func (Tip) TableName() string { return "tips" }

// TipLike is one user's like on a tip; unique per (tip, user).
type TipLike struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	TipID     int64     `db:"tip_id" json:"tip_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (TipLike) TableName() string { return "tip_likes" }

// SavedTip is a user's bookmark of a tip; unique per (tip, user).
type SavedTip struct {
	ID        int64     `db:"id,pk,auto" json:"id"`
	TipID     int64     `db:"tip_id" json:"tip_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at,omitzero" json:"created_at"`
}

func (SavedTip) TableName() string { return "saved_tips" }
