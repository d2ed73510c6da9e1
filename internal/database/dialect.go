package database

import "strings"

// Dialect describes the handful of SQL fragments that differ between backends.
// Everything else is written once with `?` placeholders, which the gorm dialector
// rewrites for the active driver.
type Dialect struct {
	Name                         string
	PKDeclaration                string
	FloatType                    string
	SupportsAddColumnIfNotExists bool
	// ColumnExistsSQL takes (table, column) and returns a single count.
	ColumnExistsSQL string
}

// Postgres is the descriptor for PostgreSQL 9.6 and newer.
var Postgres = Dialect{
	Name:                         "postgres",
	PKDeclaration:                "SERIAL PRIMARY KEY",
	FloatType:                    "DOUBLE PRECISION",
	SupportsAddColumnIfNotExists: true,
	ColumnExistsSQL:              "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?",
}

// SQLite is the descriptor for the embedded file backend.
var SQLite = Dialect{
	Name:                         "sqlite",
	PKDeclaration:                "INTEGER PRIMARY KEY AUTOINCREMENT",
	FloatType:                    "REAL",
	SupportsAddColumnIfNotExists: false,
	ColumnExistsSQL:              "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?",
}

// DialectFor picks the descriptor from a database URL.
func DialectFor(url string) Dialect {
	if isPostgresURL(url) {
		return Postgres
	}
	return SQLite
}

// AddColumnSQL renders an additive column migration.
func (d Dialect) AddColumnSQL(table, column, columnType string) string {
	if d.SupportsAddColumnIfNotExists {
		return "ALTER TABLE " + table + " ADD COLUMN IF NOT EXISTS " + column + " " + columnType
	}
	return "ALTER TABLE " + table + " ADD COLUMN " + column + " " + columnType
}

// Expand substitutes the {pk} and {float} markers of a DDL template.
func (d Dialect) Expand(ddl string) string {
	return strings.NewReplacer("{pk}", d.PKDeclaration, "{float}", d.FloatType).Replace(ddl)
}

func isPostgresURL(url string) bool {
	lower := strings.ToLower(strings.TrimSpace(url))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}
