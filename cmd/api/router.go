package main

import (
	"context"
	"net/http"
	"time"

	"library/internal/auth"
	"library/internal/catalog"
	"library/internal/httpx"
	"library/internal/lending"
	"library/internal/reminder"
	"library/internal/user"
)

type handlers struct {
	users    *user.HTTPHandler
	auth     *auth.HTTPHandler
	catalog  *catalog.HTTPHandler
	lending  *lending.HTTPHandler
	reminder *reminder.HTTPHandler
}

func newRouter(h handlers, jwtSecret string, ping func(context.Context) error) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authed := httpx.AuthMiddleware(jwtSecret)
	protect := func(fn http.HandlerFunc) http.Handler {
		return authed(fn)
	}
	staffOnly := func(fn http.HandlerFunc) http.Handler {
		return authed(httpx.RequireStaff(fn))
	}

	router.HandleFunc("POST /users/register", h.users.RegisterUser)
	router.HandleFunc("POST /users/login", h.auth.Login)
	router.Handle("GET /me", protect(h.users.GetCurrentUser))

	router.HandleFunc("GET /books", h.catalog.ListBooks)
	router.HandleFunc("GET /books/{id}", h.catalog.GetBook)
	router.Handle("POST /books", staffOnly(h.catalog.CreateBook))
	router.HandleFunc("GET /authors", h.catalog.ListAuthors)
	router.Handle("POST /authors", staffOnly(h.catalog.CreateAuthor))
	router.HandleFunc("GET /categories", h.catalog.ListCategories)
	router.Handle("POST /categories", staffOnly(h.catalog.CreateCategory))

	router.Handle("POST /borrow", protect(h.lending.Borrow))
	router.Handle("POST /return", protect(h.lending.Return))
	router.Handle("GET /borrows", protect(h.lending.ListBorrows))
	router.Handle("GET /users/{id}/penalties", protect(h.lending.Penalties))

	router.HandleFunc("POST /internal/jobs/reminders", h.reminder.Sweep)

	return router
}
