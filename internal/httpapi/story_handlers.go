package httpapi

import (
	"net/http"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
)

// maxStoryImages caps how many photos a story can carry.
const maxStoryImages = 5

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := s.store.Stories.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, stories)
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	story, err := s.store.Stories.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if author, err := s.store.Users.GetByID(r.Context(), story.AuthorID); err == nil {
		story.Author = author
	}
	respond(w, http.StatusOK, story)
}

func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var title, content string
	var imagePaths []string

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20 * maxStoryImages); err != nil {
			respondError(w, r, apperr.Validation("malformed form data", map[string]string{"body": err.Error()}))
			return
		}
		title = r.Form.Get("title")
		content = r.Form.Get("content")

		files := r.MultipartForm.File["images"]
		if len(files) > maxStoryImages {
			respondError(w, r, fieldErrors{"images": "at most 5 images allowed"}.err())
			return
		}
		for _, fh := range files {
			path, err := s.uploads.SaveImage(fh)
			if err != nil {
				respondError(w, r, err)
				return
			}
			imagePaths = append(imagePaths, path)
		}
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		title, content = req.Title, req.Content
	}

	fe := fieldErrors{}
	if title == "" {
		fe.add("title", "title is required")
	}
	if content == "" {
		fe.add("content", "content is required")
	}
	if err := fe.err(); err != nil {
		respondError(w, r, err)
		return
	}

	story, err := s.store.Stories.Create(r.Context(), models.SuccessStory{
		AuthorID: user.ID,
		Title:    title,
		Content:  content,
	}, imagePaths)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, story)
}

func (s *Server) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	story, err := s.store.Stories.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), story.AuthorID) {
		respondError(w, r, apperr.Forbidden("not your story"))
		return
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	fields := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			respondError(w, r, fieldErrors{"title": "title cannot be empty"}.err())
			return
		}
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}

	updated, err := s.store.Stories.Update(r.Context(), id, fields)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	story, err := s.store.Stories.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), story.AuthorID) {
		respondError(w, r, apperr.Forbidden("not your story"))
		return
	}

	if err := s.store.Stories.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	paths := make([]string, len(story.Images))
	for i, img := range story.Images {
		paths[i] = img.ImagePath
	}
	s.removeUploads(paths...)
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLikeStory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	liked, likes, err := s.store.Stories.ToggleLike(r.Context(), id, userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"liked": liked, "likes_count": likes})
}

func (s *Server) handleListStoryComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	comments, err := s.store.Stories.ListComments(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, comments)
}

func (s *Server) handleCreateStoryComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Content == "" {
		respondError(w, r, fieldErrors{"content": "content is required"}.err())
		return
	}

	comment, err := s.store.Stories.AddComment(r.Context(), id, userFrom(r.Context()).ID, req.Content, req.ParentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, comment)
}

func (s *Server) handleDeleteStoryComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	comment, err := s.store.Stories.GetComment(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), comment.UserID) {
		respondError(w, r, apperr.Forbidden("not your comment"))
		return
	}

	if err := s.store.Stories.DeleteComment(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
