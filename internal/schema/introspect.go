package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sheetsync/internal/model"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is safe to interpolate as a SQL
// identifier. Table names arrive from HTTP requests, so everything that
// builds SQL from them goes through this first.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// Introspector reads live column definitions from the destination database.
type Introspector struct {
	DB     *sql.DB
	Driver string // sqlite3 or mysql
}

// Columns returns the ordered column list of table.
func (in *Introspector) Columns(ctx context.Context, table string) ([]model.ColumnInfo, error) {
	if !ValidIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if in.Driver == "mysql" {
		return in.columnsMySQL(ctx, table)
	}
	return in.columnsSQLite(ctx, table)
}

func (in *Introspector) columnsSQLite(ctx context.Context, table string) ([]model.ColumnInfo, error) {
	rows, err := in.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table_info for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []model.ColumnInfo
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		c := model.ColumnInfo{
			Name:     name,
			Type:     strings.ToLower(typ),
			Nullable: notNull == 0,
		}
		if dflt.Valid {
			v := dflt.String
			c.Default = &v
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (in *Introspector) columnsMySQL(ctx context.Context, table string) ([]model.ColumnInfo, error) {
	query := `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT
	          FROM information_schema.COLUMNS
	          WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
	          ORDER BY ORDINAL_POSITION`

	rows, err := in.DB.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []model.ColumnInfo
	for rows.Next() {
		var (
			name, typ, nullable string
			dflt                sql.NullString
		)
		if err := rows.Scan(&name, &typ, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		c := model.ColumnInfo{
			Name:     name,
			Type:     typ,
			Nullable: nullable == "YES",
		}
		if dflt.Valid {
			v := dflt.String
			c.Default = &v
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// Tables lists user tables in the destination database.
func (in *Introspector) Tables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var query string
	if in.Driver == "mysql" {
		query = `SELECT TABLE_NAME FROM information_schema.TABLES
		         WHERE TABLE_SCHEMA = DATABASE() ORDER BY TABLE_NAME`
	} else {
		query = `SELECT name FROM sqlite_master
		         WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}

	rows, err := in.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
