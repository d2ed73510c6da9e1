package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Tables are created in dependency order.
var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {pk},
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS classes (
		id {pk},
		class_name TEXT NOT NULL,
		section TEXT NOT NULL,
		UNIQUE (class_name, section)
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id {pk},
		reg_no TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		class_id INTEGER REFERENCES classes (id),
		user_id INTEGER UNIQUE REFERENCES users (id) ON DELETE SET NULL,
		mother_name TEXT,
		mother_phone TEXT,
		father_name TEXT,
		father_phone TEXT,
		address TEXT,
		dob TEXT,
		blood_group TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id {pk},
		class_id INTEGER NOT NULL REFERENCES classes (id),
		subject_name TEXT NOT NULL,
		UNIQUE (class_id, subject_name)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id {pk},
		class_id INTEGER NOT NULL REFERENCES classes (id),
		subject_id INTEGER REFERENCES subjects (id),
		att_date TEXT NOT NULL,
		reg_no TEXT NOT NULL,
		present BOOLEAN NOT NULL,
		UNIQUE (class_id, subject_id, att_date, reg_no)
	)`,
	`CREATE TABLE IF NOT EXISTS teacher_profiles (
		id {pk},
		user_id INTEGER UNIQUE REFERENCES users (id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		register_id TEXT UNIQUE NOT NULL,
		main_subject TEXT,
		class_advisor TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS admin_profiles (
		id {pk},
		user_id INTEGER UNIQUE REFERENCES users (id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		register_id TEXT UNIQUE NOT NULL,
		main_subject TEXT,
		class_advisor TEXT,
		role_title TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS timetables (
		id {pk},
		class_id INTEGER NOT NULL REFERENCES classes (id),
		day TEXT NOT NULL,
		subject_name TEXT NOT NULL,
		faculty_name TEXT NOT NULL,
		UNIQUE (class_id, day, subject_name)
	)`,
	`CREATE TABLE IF NOT EXISTS exams (
		id {pk},
		exam_name TEXT NOT NULL,
		UNIQUE (exam_name)
	)`,
	`CREATE TABLE IF NOT EXISTS marks (
		id {pk},
		class_id INTEGER NOT NULL REFERENCES classes (id),
		subject_id INTEGER NOT NULL REFERENCES subjects (id),
		exam_id INTEGER NOT NULL REFERENCES exams (id),
		reg_no TEXT NOT NULL,
		marks_scored {float} NOT NULL,
		total_marks {float} NOT NULL,
		pass_mark {float} NOT NULL,
		UNIQUE (class_id, subject_id, exam_id, reg_no)
	)`,
	`CREATE TABLE IF NOT EXISTS fees (
		id {pk},
		student_name TEXT NOT NULL,
		reg_no TEXT NOT NULL,
		month TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		payment_mode TEXT NOT NULL,
		balance_amount {float} NOT NULL,
		class_id INTEGER NOT NULL REFERENCES classes (id)
	)`,
}

// Lookup indexes on the reg_no join key. These cannot conflict with existing data.
var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS ix_students_class ON students (class_id)`,
	`CREATE INDEX IF NOT EXISTS ix_attendance_reg_no ON attendance (reg_no)`,
	`CREATE INDEX IF NOT EXISTS ix_marks_reg_no ON marks (reg_no)`,
	`CREATE INDEX IF NOT EXISTS ix_fees_reg_no ON fees (reg_no)`,
}

// Uniqueness indexes added after the first release. Older databases may hold rows that
// violate them, so each one is attempted under a savepoint.
var guardedIndexDDL = []namedStatement{
	{name: "ux_attendance_general", sql: `CREATE UNIQUE INDEX IF NOT EXISTS ux_attendance_general ON attendance (class_id, att_date, reg_no) WHERE subject_id IS NULL`},
	{name: "ux_subjects_name_ci", sql: `CREATE UNIQUE INDEX IF NOT EXISTS ux_subjects_name_ci ON subjects (class_id, LOWER(subject_name))`},
	{name: "ux_exams_name_ci", sql: `CREATE UNIQUE INDEX IF NOT EXISTS ux_exams_name_ci ON exams (LOWER(exam_name))`},
}

type namedStatement struct {
	name string
	sql  string
}

type columnMigration struct {
	table      string
	column     string
	columnType string
}

// Nullable columns introduced after the tables were first deployed.
var columnMigrations = []columnMigration{
	{table: "students", column: "mother_name", columnType: "TEXT"},
	{table: "students", column: "mother_phone", columnType: "TEXT"},
	{table: "students", column: "father_name", columnType: "TEXT"},
	{table: "students", column: "father_phone", columnType: "TEXT"},
	{table: "students", column: "address", columnType: "TEXT"},
	{table: "students", column: "dob", columnType: "TEXT"},
	{table: "students", column: "blood_group", columnType: "TEXT"},
	{table: "admin_profiles", column: "role_title", columnType: "TEXT"},
}

// EnsureSchema creates missing tables and indexes and adds missing nullable columns.
// It is safe to call on every start.
func EnsureSchema(ctx context.Context, db *gorm.DB, dialect Dialect, logger zerolog.Logger) error {
	log := logger.With().Str("component", "schema").Str("dialect", dialect.Name).Logger()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ddl := range tableDDL {
			if err := tx.Exec(dialect.Expand(ddl)).Error; err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}

		for _, migration := range columnMigrations {
			if err := addColumnIfMissing(tx, dialect, migration, log); err != nil {
				return err
			}
		}

		for _, ddl := range indexDDL {
			if err := tx.Exec(ddl).Error; err != nil {
				return fmt.Errorf("create index: %w", err)
			}
		}

		for _, stmt := range guardedIndexDDL {
			if err := execGuarded(tx, stmt); err != nil {
				log.Warn().Err(err).Str("index", stmt.name).Msg("skipping unique index; existing rows conflict")
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	log.Info().Msg("schema ready")
	return nil
}

// HasColumn asks the catalog whether table.column exists.
func HasColumn(tx *gorm.DB, dialect Dialect, table, column string) (bool, error) {
	var count int64
	if err := tx.Raw(dialect.ColumnExistsSQL, table, column).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func addColumnIfMissing(tx *gorm.DB, dialect Dialect, m columnMigration, log zerolog.Logger) error {
	exists, err := HasColumn(tx, dialect, m.table, m.column)
	if err != nil {
		return fmt.Errorf("inspect %s.%s: %w", m.table, m.column, err)
	}
	if exists {
		return nil
	}

	stmt := namedStatement{
		name: "add_" + m.table + "_" + m.column,
		sql:  dialect.AddColumnSQL(m.table, m.column, m.columnType),
	}
	if err := execGuarded(tx, stmt); err != nil {
		// A concurrent starter may have added it between the check and the ALTER.
		log.Warn().Err(err).Str("table", m.table).Str("column", m.column).Msg("column migration failed")
		return nil
	}

	log.Info().Str("table", m.table).Str("column", m.column).Msg("column added")
	return nil
}

// execGuarded runs stmt under a savepoint so a failure does not leave a PostgreSQL
// transaction aborted for the statements that follow.
func execGuarded(tx *gorm.DB, stmt namedStatement) error {
	if err := tx.SavePoint(stmt.name).Error; err != nil {
		return err
	}
	if err := tx.Exec(stmt.sql).Error; err != nil {
		if rbErr := tx.RollbackTo(stmt.name).Error; rbErr != nil {
			return fmt.Errorf("%v (rollback to savepoint: %w)", err, rbErr)
		}
		return err
	}
	return nil
}
