package httpapi

import (
	"net/http"
	"strconv"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
)

func (s *Server) handleListTips(w http.ResponseWriter, r *http.Request) {
	filter := store.TipFilter{
		CategoryID: queryInt64Ptr(r, "category_id"),
		Query:      r.URL.Query().Get("q"),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}

	tips, err := s.store.Tips.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, tips)
}

func (s *Server) handleGetTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Reading a tip counts as a view.
	tip, err := s.store.Tips.View(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, tip)
}

type tipInput struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	CategoryID *int64  `json:"category_id"`
}

func (s *Server) decodeTipInput(r *http.Request) (*tipInput, string, error) {
	var in tipInput
	imagePath := ""

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20); err != nil {
			return nil, "", apperr.Validation("malformed form data", map[string]string{"body": err.Error()})
		}
		if v := r.Form.Get("title"); v != "" {
			in.Title = &v
		}
		if v := r.Form.Get("content"); v != "" {
			in.Content = &v
		}
		if v := r.Form.Get("category_id"); v != "" {
			catID, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, "", apperr.Validation("validation failed", map[string]string{"category_id": "must be an integer"})
			}
			in.CategoryID = &catID
		}
		if fh := formFile(r, "image"); fh != nil {
			path, err := s.uploads.SaveImage(fh)
			if err != nil {
				return nil, "", err
			}
			imagePath = path
		}
	} else if err := decodeJSON(r, &in); err != nil {
		return nil, "", err
	}

	return &in, imagePath, nil
}

func (s *Server) handleCreateTip(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	in, imagePath, err := s.decodeTipInput(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fe := fieldErrors{}
	if in.Title == nil || *in.Title == "" {
		fe.add("title", "title is required")
	}
	if in.Content == nil || *in.Content == "" {
		fe.add("content", "content is required")
	}
	if in.CategoryID == nil {
		fe.add("category_id", "category_id is required")
	}
	if err := fe.err(); err != nil {
		respondError(w, r, err)
		return
	}

	tip, err := s.store.Tips.Create(r.Context(), models.Tip{
		AuthorID:   user.ID,
		CategoryID: *in.CategoryID,
		Title:      *in.Title,
		Content:    *in.Content,
		ImagePath:  imagePath,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, tip)
}

func (s *Server) handleUpdateTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	tip, err := s.store.Tips.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), tip.AuthorID) {
		respondError(w, r, apperr.Forbidden("not your tip"))
		return
	}

	in, imagePath, err := s.decodeTipInput(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Content != nil {
		fields["content"] = *in.Content
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if imagePath != "" {
		fields["image_path"] = imagePath
	}

	updated, err := s.store.Tips.Update(r.Context(), id, fields)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	tip, err := s.store.Tips.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), tip.AuthorID) {
		respondError(w, r, apperr.Forbidden("not your tip"))
		return
	}

	if err := s.store.Tips.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.removeUploads(tip.ImagePath)
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLikeTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	liked, likes, err := s.store.Tips.ToggleLike(r.Context(), id, userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"liked": liked, "likes_count": likes})
}

func (s *Server) handleSaveTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.store.Tips.ToggleSave(r.Context(), id, userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"saved": saved})
}

func (s *Server) handleListSavedTips(w http.ResponseWriter, r *http.Request) {
	tips, err := s.store.Tips.ListSaved(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, tips)
}

func (s *Server) handleListTipCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Tips.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, cats)
}

func (s *Server) handleCreateTipCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, fieldErrors{"name": "name is required"}.err())
		return
	}

	cat, err := s.store.Tips.CreateCategory(r.Context(), models.TipCategory{Name: req.Name})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, cat)
}

func (s *Server) handleUpdateTipCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, fieldErrors{"name": "name is required"}.err())
		return
	}

	cat, err := s.store.Tips.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteTipCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.Tips.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
