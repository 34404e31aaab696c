package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"library/internal/catalog"
	"library/internal/config"
	"library/internal/platform/logging"
	"library/internal/platform/postgres"
	"library/internal/user"
)

const demoPassword = "Library#2024"

var (
	authorNames   = []string{"Ursula K. Le Guin", "Chinua Achebe", "Jane Austen", "Haruki Murakami", "Toni Morrison", "Italo Calvino"}
	categoryNames = []string{"Fiction", "Science Fiction", "History", "Science", "Philosophy", "Poetry"}
	words         = []string{"River", "Harbor", "Lantern", "Winter", "Garden", "Archive", "Compass", "Meridian", "Orchard", "Signal"}
)

type member struct {
	email    string
	username string
	staff    bool
}

var members = []member{
	{email: "librarian@library.test", username: "librarian", staff: true},
	{email: "alice@library.test", username: "alice"},
	{email: "bob@library.test", username: "bob"},
}

func main() {
	books := flag.Int("books", 200, "number of books to create")
	flag.Parse()

	cfg, err := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "seed")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, logger, *books); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, count int) error {
	pool, err := postgres.Open(ctx, cfg.DSN, 5*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := user.NewService(user.NewPostgresRepo(pool, cfg.DBTimeout))
	for _, m := range members {
		u, err := users.Register(ctx, m.email, m.username, demoPassword)
		if errors.Is(err, user.ErrAlreadyExists) {
			logger.Info("member already present", "email", m.email)
			continue
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", m.email, err)
		}
		if m.staff {
			if _, err := pool.Exec(ctx, `UPDATE users SET is_staff = true WHERE id = $1`, u.ID); err != nil {
				return fmt.Errorf("promote %s: %w", m.email, err)
			}
		}
	}

	active, err := users.ListActive(ctx)
	if err != nil {
		return err
	}
	logger.Info("members ready", "active", len(active))

	svc := catalog.NewService(catalog.NewPostgresRepo(pool, cfg.DBTimeout))

	authorIDs, err := ensureAuthors(ctx, svc)
	if err != nil {
		return err
	}
	categoryIDs, err := ensureCategories(ctx, svc)
	if err != nil {
		return err
	}

	for i := range count {
		title := fmt.Sprintf("The %s of the %s, vol. %d", randomWord(), randomWord(), i+1)
		desc := fmt.Sprintf("A book about %s.", randomWord())
		copies := uint(1 + rand.IntN(5))

		if _, err := svc.CreateBook(ctx, title, desc, pick(authorIDs), pick(categoryIDs), copies); err != nil {
			return fmt.Errorf("create book %d: %w", i+1, err)
		}
		if (i+1)%50 == 0 {
			logger.Info("books created", "done", i+1, "total", count)
		}
	}

	logger.Info("seed finished", "authors", len(authorIDs), "categories", len(categoryIDs), "books", count)
	return nil
}

// ensureAuthors reuses authors from an earlier run so seeding is repeatable.
func ensureAuthors(ctx context.Context, svc *catalog.Service) ([]string, error) {
	existing, err := svc.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(existing))
	for _, a := range existing {
		byName[a.Name] = a.ID
	}

	ids := make([]string, 0, len(authorNames))
	for _, name := range authorNames {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
			continue
		}
		a, err := svc.CreateAuthor(ctx, name, "")
		if err != nil {
			return nil, fmt.Errorf("create author %q: %w", name, err)
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func ensureCategories(ctx context.Context, svc *catalog.Service) ([]string, error) {
	existing, err := svc.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	ids := make([]string, 0, len(categoryNames))
	for _, name := range categoryNames {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
			continue
		}
		c, err := svc.CreateCategory(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func randomWord() string {
	return pick(words)
}

func pick(items []string) string {
	return items[rand.IntN(len(items))]
}
