package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"library/internal/httpx"

	"github.com/google/uuid"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// ListBooks handles GET /books
// @Summary List books
// @Description List catalog titles with their available copy counts
// @Tags books
// @Produce json
// @Param author_id query string false "Filter by author"
// @Param category_id query string false "Filter by category"
// @Param q query string false "Search title or author name"
// @Param in_stock query bool false "Only titles with an available copy"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := Query{
		AuthorID:    query.Get("author_id"),
		CategoryID:  query.Get("category_id"),
		Q:           query.Get("q"),
		OnlyInStock: query.Get("in_stock") == "true",
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	}
	for _, id := range []string{q.AuthorID, q.CategoryID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid filter id", nil)
			return
		}
	}

	books, total, err := h.svc.ListBooks(r.Context(), q)
	if err != nil {
		httpx.InternalError(w, r)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

// GetBook handles GET /books/{id}
// @Summary Get book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	book, err := h.svc.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		httpx.InternalError(w, r)
		return
	}

	httpx.JSONSuccess(w, r, book, nil)
}

type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4000"`
	AuthorID    string `json:"author_id" validate:"required,uuid"`
	CategoryID  string `json:"category_id" validate:"required,uuid"`
	TotalCopies uint   `json:"total_copies" validate:"gte=0,max=10000"`
}

// CreateBook handles POST /books
// @Summary Add a book
// @Description Staff only. Every copy starts available.
// @Tags books
// @Accept json
// @Produce json
// @Param request body CreateBookRequest true "Book"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Security BearerAuth
// @Router /books [post]
func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	book, err := h.svc.CreateBook(r.Context(), req.Title, req.Description, req.AuthorID, req.CategoryID, req.TotalCopies)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidBook):
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, ErrUnknownReference):
			httpx.JSONError(w, r, http.StatusUnprocessableEntity, "UNKNOWN_REFERENCE", "Author or category does not exist", nil)
		default:
			httpx.InternalError(w, r)
		}
		return
	}

	httpx.JSONCreated(w, r, book)
}

// ListAuthors handles GET /authors
// @Summary List authors
// @Tags authors
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /authors [get]
func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.ListAuthors(r.Context())
	if err != nil {
		httpx.InternalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, authors, nil)
}

type CreateAuthorRequest struct {
	Name string `json:"name" validate:"required,max=50"`
	Bio  string `json:"bio" validate:"max=128"`
}

// CreateAuthor handles POST /authors
// @Summary Add an author
// @Tags authors
// @Accept json
// @Produce json
// @Param request body CreateAuthorRequest true "Author"
// @Success 201 {object} httpx.SuccessResponse
// @Security BearerAuth
// @Router /authors [post]
func (h *HTTPHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req CreateAuthorRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	author, err := h.svc.CreateAuthor(r.Context(), req.Name, req.Bio)
	if err != nil {
		httpx.InternalError(w, r)
		return
	}
	httpx.JSONCreated(w, r, author)
}

// ListCategories handles GET /categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /categories [get]
func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpx.InternalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, categories, nil)
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=32"`
}

// CreateCategory handles POST /categories
// @Summary Add a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Security BearerAuth
// @Router /categories [post]
func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "Category already exists", nil)
			return
		}
		httpx.InternalError(w, r)
		return
	}
	httpx.JSONCreated(w, r, category)
}
