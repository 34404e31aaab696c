package reminder

import (
	"crypto/subtle"
	"net/http"
	"time"

	"library/internal/httpx"
)

type HTTPHandler struct {
	sweeper *Sweeper
	secret  string
	now     func() time.Time
}

func NewHTTPHandler(sweeper *Sweeper, secret string) *HTTPHandler {
	return &HTTPHandler{sweeper: sweeper, secret: secret, now: time.Now}
}

// Sweep handles POST /internal/jobs/reminders
// @Summary Run the due-date reminder sweep
// @Description Sends today's reminders. Safe to call repeatedly.
// @Tags internal
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret for authentication"
// @Param day query string false "Day to sweep (YYYY-MM-DD), defaults to today"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /internal/jobs/reminders [post]
func (h *HTTPHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Internal-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid internal secret", nil)
		return
	}

	day := h.now()
	if v := r.URL.Query().Get("day"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "day must be YYYY-MM-DD", nil)
			return
		}
		day = parsed
	}

	report, err := h.sweeper.Sweep(r.Context(), day)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "SWEEP_FAILED", "reminder sweep failed", nil)
		return
	}

	httpx.JSONSuccess(w, r, report, nil)
}
