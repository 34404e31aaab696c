package lending

import (
	"errors"
	"net/http"
	"time"

	"library/internal/httpx"

	"github.com/google/uuid"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func identityFrom(r *http.Request) Identity {
	return Identity{UserID: httpx.UserIDFrom(r), IsStaff: httpx.IsStaffFrom(r)}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, ErrLimitReached):
		httpx.JSONError(w, r, http.StatusConflict, "LIMIT_REACHED", "You already have the maximum number of open borrows", nil)
	case errors.Is(err, ErrUnavailable):
		httpx.JSONError(w, r, http.StatusConflict, "UNAVAILABLE", "No copies of this book are available", nil)
	case errors.Is(err, ErrAlreadyReturned):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_RETURNED", "This borrow has already been returned", nil)
	case errors.Is(err, ErrForbidden):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	case errors.Is(err, ErrConflict):
		w.Header().Set("Retry-After", "1")
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "CONFLICT", "Please retry", nil)
	default:
		httpx.InternalError(w, r)
	}
}

type BorrowReq struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

// Borrow handles POST /borrow
// @Summary Borrow a book
// @Tags lending
// @Accept json
// @Produce json
// @Param request body BorrowReq true "Book to borrow"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Security Bearer
// @Router /borrow [post]
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req BorrowReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	b, err := h.svc.BorrowBook(r.Context(), identityFrom(r), req.BookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONCreated(w, r, map[string]any{
		"borrow_id": b.ID,
		"due_date":  b.DueDate.Format(time.DateOnly),
	})
}

type ReturnReq struct {
	BorrowID string `json:"borrow_id" validate:"required,uuid"`
}

// Return handles POST /return
// @Summary Return a borrowed book
// @Description Late returns add one penalty point to the borrower.
// @Tags lending
// @Accept json
// @Produce json
// @Param request body ReturnReq true "Borrow to close"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Security Bearer
// @Router /return [post]
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req ReturnReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.ReturnBook(r.Context(), identityFrom(r), req.BorrowID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, res, nil)
}

// ListBorrows handles GET /borrows
// @Summary List my borrows
// @Tags lending
// @Produce json
// @Param open query bool false "Only unreturned borrows"
// @Success 200 {object} httpx.SuccessResponse
// @Security Bearer
// @Router /borrows [get]
func (h *HTTPHandler) ListBorrows(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open") == "true"

	borrows, err := h.svc.ListBorrows(r.Context(), identityFrom(r), openOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, borrows, map[string]any{"count": len(borrows)})
}

// Penalties handles GET /users/{id}/penalties
// @Summary Get a member's penalty points
// @Tags lending
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Security Bearer
// @Router /users/{id}/penalties [get]
func (h *HTTPHandler) Penalties(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	target := r.PathValue("id")
	if _, err := uuid.Parse(target); err != nil {
		if !id.IsStaff && target != id.UserID {
			writeError(w, r, ErrForbidden)
			return
		}
		writeError(w, r, ErrNotFound)
		return
	}

	p, err := h.svc.GetPenalties(r.Context(), id, target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, p, nil)
}
