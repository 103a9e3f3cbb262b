package migrations

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

//go:embed 20260301000001_init.sql
var initSQL string

var initTables = []string{
	"challenge_answers",
	"daily_challenges",
	"answer_records",
	"play_sessions",
	"questions",
	"subjects",
	"students",
	"classrooms",
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execStatements(ctx, db, initSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, table := range initTables {
				if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
					return fmt.Errorf("drop %s: %w", table, err)
				}
			}
			return nil
		},
	)
}

// execStatements runs a ;-separated script one statement at a time; the SQLite driver accepts one per call.
func execStatements(ctx context.Context, db *bun.DB, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
