package httpapi

import (
	"net/http"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
)

// maxMessageAttachments caps how many files one message can carry.
const maxMessageAttachments = 3

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	since, err := querySince(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	messages, err := s.store.Messages.List(r.Context(), store.MessageFilter{
		Since:  since,
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, messages)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var content string
	var attachments []models.MessageAttachment

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20 * maxMessageAttachments); err != nil {
			respondError(w, r, apperr.Validation("malformed form data", map[string]string{"body": err.Error()}))
			return
		}
		content = r.Form.Get("content")

		files := r.MultipartForm.File["attachments"]
		if len(files) > maxMessageAttachments {
			respondError(w, r, fieldErrors{"attachments": "at most 3 attachments allowed"}.err())
			return
		}
		for _, fh := range files {
			saved, err := s.uploads.SaveAttachment(fh)
			if err != nil {
				respondError(w, r, err)
				return
			}
			attachments = append(attachments, models.MessageAttachment{
				FilePath:  saved.Path,
				FileName:  saved.Name,
				MimeType:  saved.MimeType,
				SizeBytes: saved.SizeBytes,
			})
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		content = req.Content
	}

	// A message needs something to say: text, files, or both.
	if content == "" && len(attachments) == 0 {
		respondError(w, r, fieldErrors{"content": "content or attachments required"}.err())
		return
	}

	message, err := s.store.Messages.Create(r.Context(), models.CommunityMessage{
		UserID:  user.ID,
		Content: content,
	}, attachments)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, message)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	message, err := s.store.Messages.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), message.UserID) {
		respondError(w, r, apperr.Forbidden("not your message"))
		return
	}

	if err := s.store.Messages.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	paths := make([]string, len(message.Attachments))
	for i, a := range message.Attachments {
		paths[i] = a.FilePath
	}
	s.removeUploads(paths...)
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLikeMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	liked, likes, err := s.store.Messages.ToggleLike(r.Context(), id, userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"liked": liked, "likes_count": likes})
}

func (s *Server) handleListReplies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	since, err := querySince(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	replies, err := s.store.Messages.ListReplies(r.Context(), id, since)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, replies)
}

func (s *Server) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		Content       string `json:"content"`
		ParentReplyID *int64 `json:"parent_reply_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Content == "" {
		respondError(w, r, fieldErrors{"content": "content is required"}.err())
		return
	}

	reply, err := s.store.Messages.AddReply(r.Context(), id, userFrom(r.Context()).ID, req.Content, req.ParentReplyID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, reply)
}

func (s *Server) handleDeleteReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	reply, err := s.store.Messages.GetReply(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), reply.UserID) {
		respondError(w, r, apperr.Forbidden("not your reply"))
		return
	}

	if err := s.store.Messages.DeleteReply(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLikeReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	liked, likes, err := s.store.Messages.ToggleReplyLike(r.Context(), id, userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"liked": liked, "likes_count": likes})
}
