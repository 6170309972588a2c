package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/pkg/qb"
)

// MessageFilter narrows community board listings. Since returns only
// messages created strictly after the mark, for cheap polling.
type MessageFilter struct {
	Since  *time.Time
	Limit  int
	Offset int
}

// MessageRepo persists community messages, attachments, replies and likes.
type MessageRepo struct {
	pool *pgxpool.Pool
	db   *qb.DB
}

// List returns messages newest first, attachments loaded.
func (r *MessageRepo) List(ctx context.Context, f MessageFilter) ([]models.CommunityMessage, error) {
	q := qb.Select[models.CommunityMessage](r.db)
	if f.Since != nil {
		q.Where(qb.Gt("created_at", *f.Since))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}

	messages, err := q.OrderByDesc("created_at").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list messages")
	}
	if len(messages) == 0 {
		return messages, nil
	}

	ids := make([]any, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	attachments, err := qb.Select[models.MessageAttachment](r.db).
		Where(qb.In("message_id", ids...)).
		OrderByAsc("id").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load attachments")
	}

	byMessage := make(map[int64][]models.MessageAttachment)
	for _, a := range attachments {
		byMessage[a.MessageID] = append(byMessage[a.MessageID], a)
	}
	for i := range messages {
		messages[i].Attachments = byMessage[messages[i].ID]
	}
	return messages, nil
}

// Get fetches one message with its attachments.
func (r *MessageRepo) Get(ctx context.Context, id int64) (*models.CommunityMessage, error) {
	m, err := qb.Select[models.CommunityMessage](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Internal(err, "failed to load message")
	}

	attachments, err := qb.Select[models.MessageAttachment](r.db).
		Where(qb.Eq("message_id", id)).
		OrderByAsc("id").
		All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load attachments")
	}
	m.Attachments = attachments
	return m, nil
}

// Create posts a message and its attachments in one transaction.
func (r *MessageRepo) Create(ctx context.Context, m models.CommunityMessage, attachments []models.MessageAttachment) (*models.CommunityMessage, error) {
	var message *models.CommunityMessage

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		created, err := qb.Insert[models.CommunityMessage](db).Values(m).One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to create message")
		}

		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].MessageID = created.ID
			}
			inserted, err := qb.Insert[models.MessageAttachment](db).Values(attachments...).ExecReturning(ctx)
			if err != nil {
				return apperr.Internal(err, "failed to attach files")
			}
			created.Attachments = inserted
		}

		message = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// Delete removes a message; attachments, replies and likes cascade.
func (r *MessageRepo) Delete(ctx context.Context, id int64) error {
	affected, err := qb.Delete[models.CommunityMessage](r.db).Where(qb.Eq("id", id)).Exec(ctx)
	if err != nil {
		return apperr.Internal(err, "failed to delete message")
	}
	if affected == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

// ToggleLike flips one user's like on a message and keeps likes_count in
// step.
func (r *MessageRepo) ToggleLike(ctx context.Context, messageID, userID int64) (liked bool, likes int, err error) {
	err = qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		removed, err := qb.Delete[models.MessageLike](db).
			Where(qb.Eq("message_id", messageID), qb.Eq("user_id", userID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to toggle like")
		}

		expr := "likes_count + 1"
		if removed > 0 {
			expr = "likes_count - 1"
		} else {
			inserted, err := qb.Insert[models.MessageLike](db).
				Values(models.MessageLike{MessageID: messageID, UserID: userID}).
				OnConflictDoNothing("message_id", "user_id").
				Exec(ctx)
			if err != nil {
				if isForeignKeyViolation(err) {
					return apperr.NotFound("message not found")
				}
				return apperr.Internal(err, "failed to toggle like")
			}
			if inserted == 0 {
				expr = "likes_count"
			}
		}

		m, err := qb.Update[models.CommunityMessage](db).
			SetRaw("likes_count", expr).
			Where(qb.Eq("id", messageID)).
			One(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("message not found")
			}
			return apperr.Internal(err, "failed to update like count")
		}

		liked = removed == 0
		likes = m.LikesCount
		return nil
	})
	return liked, likes, err
}

// ListReplies returns a message's replies as a tree in posting order. Since
// filters to replies created after the mark; their ancestors may then be
// absent, so such replies surface at the top level.
func (r *MessageRepo) ListReplies(ctx context.Context, messageID int64, since *time.Time) ([]models.MessageReply, error) {
	q := qb.Select[models.MessageReply](r.db).Where(qb.Eq("message_id", messageID))
	if since != nil {
		q.Where(qb.Gt("created_at", *since))
	}

	all, err := q.OrderByAsc("created_at").All(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list replies")
	}

	present := make(map[int64]bool, len(all))
	for _, reply := range all {
		present[reply.ID] = true
	}

	children := make(map[int64][]models.MessageReply)
	var top []models.MessageReply
	for _, reply := range all {
		if reply.ParentReplyID != nil && present[*reply.ParentReplyID] {
			children[*reply.ParentReplyID] = append(children[*reply.ParentReplyID], reply)
		} else {
			top = append(top, reply)
		}
	}

	var attach func(replies []models.MessageReply) []models.MessageReply
	attach = func(replies []models.MessageReply) []models.MessageReply {
		for i := range replies {
			replies[i].Children = attach(children[replies[i].ID])
		}
		return replies
	}
	top = attach(top)
	if top == nil {
		top = []models.MessageReply{}
	}
	return top, nil
}

// GetReply fetches one reply.
func (r *MessageRepo) GetReply(ctx context.Context, id int64) (*models.MessageReply, error) {
	reply, err := qb.Select[models.MessageReply](r.db).Where(qb.Eq("id", id)).First(ctx)
	if err != nil {
		if errors.Is(err, qb.ErrNotFound) {
			return nil, apperr.NotFound("reply not found")
		}
		return nil, apperr.Internal(err, "failed to load reply")
	}
	return reply, nil
}

// AddReply posts a reply, computing depth from its parent and bumping
// replies_count in the same transaction.
func (r *MessageRepo) AddReply(ctx context.Context, messageID, userID int64, content string, parentReplyID *int64) (*models.MessageReply, error) {
	var reply *models.MessageReply

	err := qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		exists, err := qb.Select[models.CommunityMessage](db).
			Where(qb.Eq("id", messageID)).
			ForUpdate().
			Exists(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to lock message")
		}
		if !exists {
			return apperr.NotFound("message not found")
		}

		depth := 0
		if parentReplyID != nil {
			parent, err := qb.Select[models.MessageReply](db).
				Where(qb.Eq("id", *parentReplyID)).
				First(ctx)
			if err != nil {
				if errors.Is(err, qb.ErrNotFound) {
					return apperr.NotFound("parent reply not found")
				}
				return apperr.Internal(err, "failed to load parent reply")
			}
			if parent.MessageID != messageID {
				return apperr.Validation("parent belongs to another message", map[string]string{
					"parent_reply_id": "parent belongs to another message",
				})
			}
			depth = parent.Depth + 1
		}

		created, err := qb.Insert[models.MessageReply](db).Values(models.MessageReply{
			MessageID:     messageID,
			UserID:        userID,
			ParentReplyID: parentReplyID,
			Content:       content,
			Depth:         depth,
		}).One(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to create reply")
		}

		_, err = qb.Update[models.CommunityMessage](db).
			SetRaw("replies_count", "replies_count + 1").
			Where(qb.Eq("id", messageID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to update reply count")
		}

		reply = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// DeleteReply removes a reply and its cascading descendants, adjusting
// replies_count by the number of rows that actually went away.
func (r *MessageRepo) DeleteReply(ctx context.Context, id int64) error {
	return qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		reply, err := qb.Select[models.MessageReply](db).
			Where(qb.Eq("id", id)).
			ForUpdate().
			First(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("reply not found")
			}
			return apperr.Internal(err, "failed to lock reply")
		}

		// Count the whole subtree before the cascade removes it.
		removed := int64(1)
		frontier := []any{id}
		for len(frontier) > 0 {
			descendants, err := qb.Select[models.MessageReply](db).
				Columns("id").
				Where(qb.In("parent_reply_id", frontier...)).
				All(ctx)
			if err != nil {
				return apperr.Internal(err, "failed to count nested replies")
			}
			frontier = frontier[:0]
			for _, d := range descendants {
				removed++
				frontier = append(frontier, d.ID)
			}
		}

		if _, err := qb.Delete[models.MessageReply](db).Where(qb.Eq("id", id)).Exec(ctx); err != nil {
			return apperr.Internal(err, "failed to delete reply")
		}

		_, err = db.Exec(ctx,
			"UPDATE community_messages SET replies_count = GREATEST(replies_count - $1, 0) WHERE id = $2",
			removed, reply.MessageID)
		if err != nil {
			return apperr.Internal(err, "failed to update reply count")
		}
		return nil
	})
}

// ToggleReplyLike flips one user's like on a reply and keeps its likes_count
// in step.
func (r *MessageRepo) ToggleReplyLike(ctx context.Context, replyID, userID int64) (liked bool, likes int, err error) {
	err = qb.WithinTx(ctx, r.pool, func(db *qb.DB) error {
		removed, err := qb.Delete[models.ReplyLike](db).
			Where(qb.Eq("reply_id", replyID), qb.Eq("user_id", userID)).
			Exec(ctx)
		if err != nil {
			return apperr.Internal(err, "failed to toggle like")
		}

		expr := "likes_count + 1"
		if removed > 0 {
			expr = "likes_count - 1"
		} else {
			inserted, err := qb.Insert[models.ReplyLike](db).
				Values(models.ReplyLike{ReplyID: replyID, UserID: userID}).
				OnConflictDoNothing("reply_id", "user_id").
				Exec(ctx)
			if err != nil {
				if isForeignKeyViolation(err) {
					return apperr.NotFound("reply not found")
				}
				return apperr.Internal(err, "failed to toggle like")
			}
			if inserted == 0 {
				expr = "likes_count"
			}
		}

		reply, err := qb.Update[models.MessageReply](db).
			SetRaw("likes_count", expr).
			Where(qb.Eq("id", replyID)).
			One(ctx)
		if err != nil {
			if errors.Is(err, qb.ErrNotFound) {
				return apperr.NotFound("reply not found")
			}
			return apperr.Internal(err, "failed to update like count")
		}

		liked = removed == 0
		likes = reply.LikesCount
		return nil
	})
	return liked, likes, err
}
