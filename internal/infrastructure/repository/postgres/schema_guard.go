package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/livescore-sync/db"
	"github.com/riskibarqy/livescore-sync/internal/domain/identity"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	qb "github.com/riskibarqy/livescore-sync/internal/platform/querybuilder"
)

type columnSpec struct {
	Table      string
	Column     string
	Definition string
}

// expectedColumns lists every column the repositories read or write. Columns
// missing from an older database are added in place.
var expectedColumns = []columnSpec{
	{Table: "leagues", Column: "country", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "leagues", Column: "name_key", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "leagues", Column: "logo_url", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "leagues", Column: "created_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
	{Table: "leagues", Column: "updated_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
	{Table: "teams", Column: "name_key", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "teams", Column: "logo_url", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "teams", Column: "created_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
	{Table: "teams", Column: "updated_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
	{Table: "matches", Column: "home_score", Definition: "INTEGER"},
	{Table: "matches", Column: "away_score", Definition: "INTEGER"},
	{Table: "matches", Column: "match_status", Definition: "TEXT NOT NULL DEFAULT 'unknown'"},
	{Table: "matches", Column: "match_time", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "matches", Column: "match_date", Definition: "DATE NOT NULL DEFAULT CURRENT_DATE"},
	{Table: "matches", Column: "is_live", Definition: "BOOLEAN NOT NULL DEFAULT FALSE"},
	{Table: "matches", Column: "has_tv_icon", Definition: "BOOLEAN NOT NULL DEFAULT FALSE"},
	{Table: "matches", Column: "has_audio_icon", Definition: "BOOLEAN NOT NULL DEFAULT FALSE"},
	{Table: "matches", Column: "has_info_icon", Definition: "BOOLEAN NOT NULL DEFAULT FALSE"},
	{Table: "matches", Column: "current_minute", Definition: "INTEGER"},
	{Table: "matches", Column: "match_url", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "matches", Column: "match_stage", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "matches", Column: "scraped_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
	{Table: "matches", Column: "updated_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
}

// SchemaGuard applies the embedded migrations and then adds any expected
// column an existing table lacks. It never drops or renames anything.
type SchemaGuard struct {
	db     *sqlx.DB
	logger *logging.Logger
}

func NewSchemaGuard(db *sqlx.DB, logger *logging.Logger) *SchemaGuard {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchemaGuard{db: db, logger: logger.Named("schema")}
}

func (g *SchemaGuard) Ensure(ctx context.Context) error {
	if err := g.migrate(ctx); err != nil {
		return err
	}
	if err := g.addMissingColumns(ctx); err != nil {
		return err
	}
	return g.ensureIdentityKeys(ctx)
}

func (g *SchemaGuard) migrate(ctx context.Context) error {
	src, err := iofs.New(db.Migrations, db.MigrationsDir)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	// A dedicated connection keeps m.Close from closing the shared pool.
	conn, err := g.db.DB.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{})
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			g.logger.WarnContext(ctx, "close migration source", "error", srcErr)
		}
		if dbErr != nil {
			g.logger.WarnContext(ctx, "close migration db", "error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.logger.DebugContext(ctx, "schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		g.logger.InfoContext(ctx, "migrations applied", "version", version, "dirty", dirty)
	}
	return nil
}

func (g *SchemaGuard) addMissingColumns(ctx context.Context) error {
	existing, err := g.existingColumns(ctx)
	if err != nil {
		return err
	}

	for _, spec := range missingColumns(existing, expectedColumns) {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
			pq.QuoteIdentifier(spec.Table), pq.QuoteIdentifier(spec.Column), spec.Definition)
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", spec.Table, spec.Column, err)
		}
		g.logger.InfoContext(ctx, "added missing column", "table", spec.Table, "column", spec.Column)
	}
	return nil
}

func (g *SchemaGuard) existingColumns(ctx context.Context) (map[string]map[string]bool, error) {
	tables := make([]string, 0, 3)
	seen := make(map[string]bool)
	for _, spec := range expectedColumns {
		if !seen[spec.Table] {
			seen[spec.Table] = true
			tables = append(tables, spec.Table)
		}
	}

	query, args, err := qb.Select("table_name", "column_name").From("information_schema.columns").
		Where(
			qb.Expr("table_schema = current_schema()"),
			qb.In("table_name", tables),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select columns query: %w", err)
	}

	var rows []struct {
		Table  string `db:"table_name"`
		Column string `db:"column_name"`
	}
	if err := g.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select table columns: %w", err)
	}

	out := make(map[string]map[string]bool, len(tables))
	for _, row := range rows {
		if out[row.Table] == nil {
			out[row.Table] = make(map[string]bool)
		}
		out[row.Table][row.Column] = true
	}
	return out, nil
}

// missingColumns returns the specs whose table exists but lacks the column.
// Absent tables are left to the migrations.
func missingColumns(existing map[string]map[string]bool, specs []columnSpec) []columnSpec {
	var out []columnSpec
	for _, spec := range specs {
		cols, ok := existing[spec.Table]
		if !ok {
			continue
		}
		if !cols[spec.Column] {
			out = append(out, spec)
		}
	}
	return out
}

// keyedTable is a table whose name_key column backs ON CONFLICT (name_key)
// in ApplyBatch and so needs a unique index.
type keyedTable struct {
	Table   string
	Country bool
	Key     func(name, country string) string
}

var keyedTables = []keyedTable{
	{Table: "leagues", Country: true, Key: identity.LeagueKey},
	{Table: "teams", Key: func(name, _ string) string { return identity.TeamKey(name) }},
}

type keyRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Country string `db:"country"`
	NameKey string `db:"name_key"`
}

// ensureIdentityKeys fills empty name_key values of tables that lack a
// unique name_key index, then creates the index. Tables created by the
// migrations already carry the constraint and are skipped.
func (g *SchemaGuard) ensureIdentityKeys(ctx context.Context) error {
	for _, kt := range keyedTables {
		indexed, err := g.hasUniqueKeyIndex(ctx, kt.Table)
		if err != nil {
			return err
		}
		if indexed {
			continue
		}
		if err := g.backfillKeys(ctx, kt); err != nil {
			return err
		}
	}
	return nil
}

func (g *SchemaGuard) hasUniqueKeyIndex(ctx context.Context, table string) (bool, error) {
	query, args, err := qb.Select("indexdef").From("pg_indexes").
		Where(
			qb.Expr("schemaname = current_schema()"),
			qb.Eq("tablename", table),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build select %s indexes query: %w", table, err)
	}

	var defs []string
	if err := g.db.SelectContext(ctx, &defs, query, args...); err != nil {
		return false, fmt.Errorf("select %s indexes: %w", table, err)
	}
	for _, def := range defs {
		if isUniqueKeyIndex(def) {
			return true, nil
		}
	}
	return false, nil
}

// isUniqueKeyIndex reports whether a pg_indexes definition is a unique index
// on name_key alone.
func isUniqueKeyIndex(def string) bool {
	return strings.HasPrefix(def, "CREATE UNIQUE INDEX ") && strings.HasSuffix(def, "(name_key)")
}

func (g *SchemaGuard) backfillKeys(ctx context.Context, kt keyedTable) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s key backfill tx: %w", kt.Table, err)
	}
	defer func() { _ = tx.Rollback() }()

	table := pq.QuoteIdentifier(kt.Table)
	if _, err := tx.ExecContext(ctx, "LOCK TABLE "+table+" IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("lock %s: %w", kt.Table, err)
	}

	country := "'' AS country"
	if kt.Country {
		country = "country"
	}
	query, args, err := qb.Select("id", "name", country, "name_key").From(kt.Table).OrderBy("id").ToSQL()
	if err != nil {
		return fmt.Errorf("build select %s keys query: %w", kt.Table, err)
	}
	var rows []keyRow
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("select %s keys: %w", kt.Table, err)
	}

	updates, collisions := assignIdentityKeys(rows, kt.Key)
	for _, c := range collisions {
		g.logger.WarnContext(ctx, "duplicate identity key renamed",
			"table", kt.Table, "name_key", c.Key, "kept_id", c.KeptID, "renamed_id", c.RenamedID)
	}

	ids := make([]string, 0, len(updates))
	for id := range updates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		query, args, err := qb.Update(kt.Table).Set("name_key", updates[id]).Where(qb.Eq("id", id)).ToSQL()
		if err != nil {
			return fmt.Errorf("build update %s key query: %w", kt.Table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update %s name_key id=%s: %w", kt.Table, id, err)
		}
	}

	index := pq.QuoteIdentifier(kt.Table + "_name_key_unique")
	if _, err := tx.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS "+index+" ON "+table+" (name_key)"); err != nil {
		return fmt.Errorf("create %s name_key index: %w", kt.Table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s key backfill: %w", kt.Table, err)
	}
	g.logger.InfoContext(ctx, "identity keys indexed",
		"table", kt.Table, "backfilled", len(updates), "renamed", len(collisions))
	return nil
}

type keyCollision struct {
	Key       string
	KeptID    string
	RenamedID string
}

// assignIdentityKeys computes the key of every row with an empty name_key.
// rows must be ordered by id. When two rows share a key the lowest id keeps
// it and later rows get "<key>#<id>", which no scraped name folds to.
func assignIdentityKeys(rows []keyRow, key func(name, country string) string) (map[string]string, []keyCollision) {
	owner := make(map[string]string, len(rows))
	updates := make(map[string]string)
	var collisions []keyCollision

	for _, row := range rows {
		k := row.NameKey
		if k == "" {
			k = key(row.Name, row.Country)
		}
		if kept, taken := owner[k]; taken {
			collisions = append(collisions, keyCollision{Key: k, KeptID: kept, RenamedID: row.ID})
			k = k + "#" + row.ID
		}
		owner[k] = row.ID
		if k != row.NameKey {
			updates[row.ID] = k
		}
	}
	return updates, collisions
}
