package httpapi

import (
	"net/http"
	"strconv"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := store.ProductFilter{
		CategoryID: queryInt64Ptr(r, "category_id"),
		FarmerID:   queryInt64Ptr(r, "farmer_id"),
		Query:      r.URL.Query().Get("q"),
		Available:  queryBoolPtr(r, "available"),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}

	products, err := s.store.Products.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	product, err := s.store.Products.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, product)
}

// productInput carries create/update fields from either JSON or form-data.
type productInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Unit        *string  `json:"unit"`
	CategoryID  *int64   `json:"category_id"`
	IsAvailable *bool    `json:"is_available"`
}

// decodeProductInput reads the request body and the optional image upload.
func (s *Server) decodeProductInput(r *http.Request) (*productInput, string, error) {
	var in productInput
	imagePath := ""

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20); err != nil {
			return nil, "", apperr.Validation("malformed form data", map[string]string{"body": err.Error()})
		}
		form := r.Form
		if v := form.Get("name"); v != "" {
			in.Name = &v
		}
		if v := form.Get("description"); v != "" {
			in.Description = &v
		}
		if v := form.Get("unit"); v != "" {
			in.Unit = &v
		}
		if v := form.Get("price"); v != "" {
			price, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, "", apperr.Validation("validation failed", map[string]string{"price": "must be a number"})
			}
			in.Price = &price
		}
		if v := form.Get("quantity"); v != "" {
			qty, err := strconv.Atoi(v)
			if err != nil {
				return nil, "", apperr.Validation("validation failed", map[string]string{"quantity": "must be an integer"})
			}
			in.Quantity = &qty
		}
		if v := form.Get("category_id"); v != "" {
			catID, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, "", apperr.Validation("validation failed", map[string]string{"category_id": "must be an integer"})
			}
			in.CategoryID = &catID
		}
		if v := form.Get("is_available"); v != "" {
			avail, err := strconv.ParseBool(v)
			if err != nil {
				return nil, "", apperr.Validation("validation failed", map[string]string{"is_available": "must be a boolean"})
			}
			in.IsAvailable = &avail
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

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	in, imagePath, err := s.decodeProductInput(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fe := fieldErrors{}
	if in.Name == nil || *in.Name == "" {
		fe.add("name", "name is required")
	}
	if in.Price == nil || *in.Price < 0 {
		fe.add("price", "non-negative price is required")
	}
	if in.Quantity == nil || *in.Quantity < 0 {
		fe.add("quantity", "non-negative quantity is required")
	}
	if in.CategoryID == nil {
		fe.add("category_id", "category_id is required")
	}
	if err := fe.err(); err != nil {
		respondError(w, r, err)
		return
	}

	p := models.Product{
		FarmerID:    user.ID,
		CategoryID:  *in.CategoryID,
		Name:        *in.Name,
		Price:       *in.Price,
		Quantity:    *in.Quantity,
		Unit:        "kg",
		ImagePath:   imagePath,
		IsAvailable: true,
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}

	created, err := s.store.Products.Create(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

// canManage reports whether a user owns a resource or is an admin.
func canManage(user *models.User, ownerID int64) bool {
	return user.Role == models.RoleAdmin || user.ID == ownerID
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	product, err := s.store.Products.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), product.FarmerID) {
		respondError(w, r, apperr.Forbidden("not your product"))
		return
	}

	in, imagePath, err := s.decodeProductInput(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			respondError(w, r, fieldErrors{"price": "must be non-negative"}.err())
			return
		}
		fields["price"] = *in.Price
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			respondError(w, r, fieldErrors{"quantity": "must be non-negative"}.err())
			return
		}
		fields["quantity"] = *in.Quantity
	}
	if in.Unit != nil {
		fields["unit"] = *in.Unit
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}
	if imagePath != "" {
		fields["image_path"] = imagePath
	}

	updated, err := s.store.Products.Update(r.Context(), id, fields)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	product, err := s.store.Products.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !canManage(userFrom(r.Context()), product.FarmerID) {
		respondError(w, r, apperr.Forbidden("not your product"))
		return
	}

	if err := s.store.Products.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.removeUploads(product.ImagePath)
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}
