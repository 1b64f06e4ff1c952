package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/yuktifest/yukti-backend/internal/config"
	"github.com/yuktifest/yukti-backend/internal/db"
	"github.com/yuktifest/yukti-backend/internal/observability"
	"github.com/yuktifest/yukti-backend/internal/repo/postgres"
	"github.com/yuktifest/yukti-backend/internal/uniqueid"
)

type backfillStore interface {
	ListMissingUniqueID(ctx context.Context) ([]postgres.MissingUniqueID, error)
	UniqueIDByEmail(ctx context.Context, email string) (string, bool, error)
	SetUniqueID(ctx context.Context, id, uniqueID string) error
}

// One-shot pass assigning unique ids to legacy rows imported without
// one. Every row sharing an email gets the same id; an email that
// already minted one (a registration made after the import) keeps it.
func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gen := uniqueid.New()

	_, failed, err := run(ctx, postgres.NewRegistrationsRepo(pool, nil), gen.Generate, log)

	if err != nil {
		log.Error("backfill aborted", "err", err)
		os.Exit(1)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, store backfillStore, generate func() (string, error), log *slog.Logger) (updated, failed int, err error) {
	missing, err := store.ListMissingUniqueID(ctx)

	if err != nil {
		return
	}

	if len(missing) == 0 {
		log.Info("backfill complete, nothing to do")
		return
	}

	byEmail := make(map[string]string, len(missing))

	for _, row := range missing {
		uid, ok := byEmail[row.Email]

		if !ok {
			// another of this email's rows may already carry an id
			var found bool

			uid, found, err = store.UniqueIDByEmail(ctx, row.Email)

			if err != nil {
				return
			}

			if !found {
				uid, err = generate()

				if err != nil {
					return
				}
			}

			byEmail[row.Email] = uid
		}

		if serr := store.SetUniqueID(ctx, row.ID, uid); serr != nil {
			log.Error("backfill update failed", "registration_id", row.ID, "err", serr)
			failed++
			continue
		}

		updated++
	}

	log.Info("backfill complete",
		"rows", len(missing),
		"updated", updated,
		"failed", failed,
		"distinct_emails", len(byEmail),
	)

	return
}
