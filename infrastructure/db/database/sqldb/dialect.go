package sqldb

import (
	"strconv"
	"strings"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// dialect captures what differs between the supported SQL engines.
type dialect struct {
	name       string
	driverName string
	blobType   string

	// numberedPlaceholders is set when the engine expects $1, $2, ...
	// instead of ?.
	numberedPlaceholders bool

	// classify translates engine-specific constraint errors into
	// database errors. It returns nil for any other error.
	classify func(err error) error
}

var sqliteDialect = &dialect{
	name:       "sqlite3",
	driverName: "sqlite3",
	blobType:   "blob",
	classify:   classifySQLiteError,
}

var postgresDialect = &dialect{
	name:                 "postgres",
	driverName:           "postgres",
	blobType:             "bytea",
	numberedPlaceholders: true,
	classify:             classifyPostgresError,
}

// rebind rewrites the ? placeholders of query to the dialect's style.
func (d *dialect) rebind(query string) string {
	if !d.numberedPlaceholders {
		return query
	}
	var builder strings.Builder
	builder.Grow(len(query) + 8)
	argument := 0
	for _, char := range query {
		if char != '?' {
			builder.WriteRune(char)
			continue
		}
		argument++
		builder.WriteByte('$')
		builder.WriteString(strconv.Itoa(argument))
	}
	return builder.String()
}

// schema returns the statements creating the chainstore tables. Tables
// are listed in dependency order.
func (d *dialect) schema() []string {
	return []string{
		`create table if not exists blocks (
			hash ` + d.blobType + ` primary key,
			block ` + d.blobType + ` not null
		)`,
		`create table if not exists block_index (
			hash ` + d.blobType + ` primary key references blocks (hash),
			chain_length bigint not null,
			parent ` + d.blobType + ` not null,
			fast_distance bigint,
			fast_hash ` + d.blobType + `
		)`,
		`create table if not exists tags (
			name text primary key,
			hash ` + d.blobType + ` not null references block_index (hash)
		)`,
	}
}

// wrapError converts err into a database error when it is a constraint
// violation, and adds context otherwise.
func (d *dialect) wrapError(err error, format string, args ...interface{}) error {
	if classified := d.classify(err); classified != nil {
		return errors.Wrapf(classified, format+": %s", append(args, err)...)
	}
	return errors.Wrapf(err, format, args...)
}

func classifySQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return nil
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return database.ErrAlreadyExists
	case sqlite3.ErrConstraintForeignKey:
		return database.ErrMissingReference
	}
	return nil
}

const (
	postgresUniqueViolation     = "23505"
	postgresForeignKeyViolation = "23503"
)

func classifyPostgresError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case postgresUniqueViolation:
		return database.ErrAlreadyExists
	case postgresForeignKeyViolation:
		return database.ErrMissingReference
	}
	return nil
}
