package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// StoryRepo persists success stories, their images, comments and likes.
type StoryRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// List returns stories newest first, images attached.
func (r *StoryRepo) List(ctx context.Context, limit, offset int) ([]models.SuccessStory, error) {
	q := qb.Select[models.SuccessStory](r.db).OrderByDesc("created_at")
	if limit > 0 {
		q.Limit(limit)
	}
	if offset > 0 {
		q.Offset(offset)
	}

	stories, err := q.All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list stories")
	}
	if len(stories) == 0 {
		return stories, nil
	}

	ids := make([]any, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
	}
	images, err := qb.Select[models.StoryImage](r.db).
		Where(qb.In("story_id", ids...)).
		OrderByAsc("position").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load story images")
	}

	byStory := make(map[int64][]models.StoryImage)
	for _, img := range images {
		byStory[img.StoryID] = append(byStory[img.StoryID], img)
	}
	for i := range stories {
		stories[i].Images = byStory[stories[i].ID]
	}
	return stories, nil
}

// Get fetches one story with its images.
func (r *StoryRepo) Get(ctx context.Context, id int64) (*models.SuccessStory, error) {
	story, err := qb.Select[models.SuccessStory](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("story not found")
		}
		return nil, apperr.Internal(err, "failed to load story")
	}

	images, err := qb.Select[models.StoryImage](r.db).
		Where(qb.Eq("story_id", id)).
		OrderByAsc("position").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load story images")
	}
	story.Images = images
	return story, nil
}

// Create inserts a story and its images in one transaction.
func (r *StoryRepo) Create(ctx context.Context, s models.SuccessStory, imagePaths []string) (*models.SuccessStory, error) {
	var story *models.SuccessStory

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		created, err := qb.Insert[models.SuccessStory](db).Values(s).One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to create story")
		}

		if len(imagePaths) > 0 {
			images := make([]models.StoryImage, len(imagePaths))
			for i, path := range imagePaths {
				images[i] = models.StoryImage{StoryID: created.ID, ImagePath: path, Position: i}
			}
			inserted, err := qb.Insert[models.StoryImage](db).Values(images...).ExecReturning(ctx)
			if err != nil {
				return apperr.Internal(err, "failed to attach story images")
			}
			created.Images = inserted
		}

		story = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

// Update applies the given column values to one story.
func (r *StoryRepo) Update(ctx context.Context, id int64, fields map[string]any) (*models.SuccessStory, error) {
	q := qb.Update[models.SuccessStory](r.db)
	for col, val := range fields {
		q.Set(col, val)
	}
	q.SetRaw("updated_at", "NOW()")

	s, err := q.Where(qb.Eq("id", id)).One(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("story not found")
		}
		return nil, apperr.Internal(err, "failed to update story")
	}
	return s, nil
}

// Delete removes a story; images, comments and likes cascade.
func (r *StoryRepo) Delete(ctx context.Context, id int64) error {
	affected, err := qb.Delete[models.SuccessStory](r.db).Where(qb.Eq("id", id)).Exec(ctx)
	if err != nil {
		return apperr.Internal(err, "failed to delete story")
	}
	if affected == 0 {
		return apperr.NotFound("story not found")
	}
	return nil
}

// ToggleLike flips one user's like on a story and keeps likes_count in step.
func (r *StoryRepo) ToggleLike(ctx context.Context, storyID, userID int64) (liked bool, likes int, err error) {
	err = qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		removed, err := qb.Delete[models.StoryLike](db).
			Where(qb.Eq("story_id", storyID), qb.Eq("user_id", userID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to toggle like")
		}

		expr := "likes_count + 1"
		if removed > 0 {
			expr = "likes_count - 1"
		} else {
			inserted, err := qb.Insert[models.StoryLike](db).
				Values(models.StoryLike{StoryID: storyID, UserID: userID}).
				OnConflictDoNothing("story_id", "user_id").
				Exec(ctx)
			if err != nil {
				if isForeignKeyViolation(err) {
					return apperr.NotFound("story not found")
				}
				return apperr.Internal(err, "failed to toggle like")
			}
			if inserted == 0 {
				expr = "likes_count"
			}
		}

		story, err := qb.Update[models.SuccessStory](db).
			SetRaw("likes_count", expr).
			Where(qb.Eq("id", storyID)).
			One(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("story not found")
			}
			return apperr.Internal(err, "failed to update like count")
		}

		liked = removed == 0
		likes = story.LikesCount
		return nil
	})
	return liked, likes, err
}

// ListComments returns a story's comments as a one-level tree: top-level
// comments in posting order, replies nested under their parent.
func (r *StoryRepo) ListComments(ctx context.Context, storyID int64) ([]models.StoryComment, error) {
	all, err := qb.Select[models.StoryComment](r.db).
		Where(qb.Eq("story_id", storyID)).
		OrderByAsc("created_at").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list comments")
	}

	children := make(map[int64][]models.StoryComment)
	var top []models.StoryComment
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		} else {
			top = append(top, c)
		}
	}
	for i := range top {
		top[i].Replies = children[top[i].ID]
	}
	if top == nil {
		top = []models.StoryComment{}
	}
	return top, nil
}

// GetComment fetches one comment.
func (r *StoryRepo) GetComment(ctx context.Context, id int64) (*models.StoryComment, error) {
	c, err := qb.Select[models.StoryComment](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, apperr.Internal(err, "failed to load comment")
	}
	return c, nil
}

// AddComment posts a comment on a story, bumping comments_count in the same
// transaction. Threads stay one level deep: replying to a reply attaches to
// the top-level parent instead.
func (r *StoryRepo) AddComment(ctx context.Context, storyID, userID int64, content string, parentID *int64) (*models.StoryComment, error) {
	var comment *models.StoryComment

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		exists, err := qb.Select[models.SuccessStory](db).
			Where(qb.Eq("id", storyID)).
			ForUpdate().
			Exists(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to lock story")
		}
		if !exists {
			return apperr.NotFound("story not found")
		}

		if parentID != nil {
			parent, err := qb.Select[models.StoryComment](db).
				Where(qb.Eq("id", *parentID)).
				First(ctx)
			if err != nil {
				if errors.Is(err, qb.ErrNotFound) {
					return apperr.NotFound("parent comment not found")
				}
				return apperr.Internal(err, "failed to load parent comment")
			}
			if parent.StoryID != storyID {
				return apperr.Validation("parent belongs to another story", map[string]string{
					"parent_id": "parent belongs to another story",
				})
			}
			if parent.ParentID != nil {
				parentID = parent.ParentID
			}
		}

		created, err := qb.Insert[models.StoryComment](db).Values(models.StoryComment{
			StoryID:  storyID,
			UserID:   userID,
			ParentID: parentID,
			Content:  content,
		}).One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to create comment")
		}

		_, err = qb.Update[models.SuccessStory](db).
			SetRaw("comments_count", "comments_count + 1").
			Where(qb.Eq("id", storyID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to update comment count")
		}

		comment = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment and its cascading replies, adjusting
// comments_count by the number of rows that actually went away.
func (r *StoryRepo) DeleteComment(ctx context.Context, id int64) error {
	return qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		comment, err := qb.Select[models.StoryComment](db).
			Where(qb.Eq("id", id)).
			ForUpdate().
			First(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("comment not found")
			}
			return apperr.Internal(err, "failed to lock comment")
		}

		replies, err := qb.Select[models.StoryComment](db).
			Where(qb.Eq("parent_id", id)).
			Count(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to count replies")
		}

		if _, err := qb.Delete[models.StoryComment](db).Where(qb.Eq("id", id)).Exec(ctx); err != nil {
			return apperr.Internal(err, "failed to delete comment")
		}

		_, err = db.Exec(ctx,
			"UPDATE success_stories SET comments_count = GREATEST(comments_count - $1, 0) WHERE id = $2",
			replies+1, comment.StoryID)
		if err != nil {
			return apperr.Internal(err, "failed to update comment count")
		}
		return nil
	})
}
