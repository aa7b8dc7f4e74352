package sqldb

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/dbml"
	"github.com/zoobzio/sentinel"
	"github.com/zoobzio/sieve/internal/fieldkind"
)

// column is a db-tagged field of the record type.
type column struct {
	field    string
	name     string
	kind     fieldkind.Kind
	nullable bool
}

// buildSchema creates a DBML project for table from the record's Sentinel
// metadata and returns the columns in field order. Fields without a db tag,
// or tagged "-", are not columns.
func buildSchema(metadata sentinel.Metadata, table string) (*dbml.Project, []column, error) {
	project := dbml.NewProject(table).
		WithDatabaseType("PostgreSQL")

	tbl := dbml.NewTable(table).
		WithSchema("public")

	var columns []column
	for _, field := range metadata.Fields {
		dbTag, ok := field.Tags["db"]
		if !ok || dbTag == "" || dbTag == "-" {
			continue
		}

		sqlType := field.Tags["type"]
		if sqlType == "" {
			sqlType = inferPostgresType(field.ReflectType)
		}

		col := dbml.NewColumn(dbTag, sqlType)

		notNull, unique, primaryKey := parseConstraintsTag(field.Tags["constraints"])
		if primaryKey {
			col.WithPrimaryKey()
		}
		if unique {
			col.WithUnique()
		}
		nullable := !notNull && !primaryKey
		if nullable {
			col.WithNull()
		}

		if defaultVal, ok := field.Tags["default"]; ok {
			col.WithDefault(defaultVal)
		}

		if references, ok := field.Tags["references"]; ok {
			refTable, refColumn, err := parseReferenceTag(references)
			if err != nil {
				return nil, nil, fmt.Errorf("field %q: %w", field.Name, err)
			}
			col.WithRef(dbml.ManyToOne, "public", refTable, refColumn)
		}

		tbl.AddColumn(col)
		columns = append(columns, column{
			field:    field.Name,
			name:     dbTag,
			kind:     fieldkind.Of(field.ReflectType, nil),
			nullable: nullable || field.ReflectType.Kind() == reflect.Pointer,
		})
	}

	if len(columns) == 0 {
		return nil, nil, ErrNoColumns
	}

	project.AddTable(tbl)

	if err := project.Validate(); err != nil {
		return nil, nil, fmt.Errorf("generated DBML is invalid: %w", err)
	}

	return project, columns, nil
}

// parseReferenceTag parses a references tag of the form "table(column)".
func parseReferenceTag(ref string) (refTable, refColumn string, err error) {
	idx := strings.Index(ref, "(")
	if idx == -1 || !strings.HasSuffix(ref, ")") {
		return "", "", fmt.Errorf("invalid references format %q, expected 'table(column)'", ref)
	}

	refTable = ref[:idx]
	refColumn = strings.TrimSuffix(ref[idx+1:], ")")

	if refTable == "" {
		return "", "", fmt.Errorf("empty table name in references %q", ref)
	}
	if refColumn == "" {
		return "", "", fmt.Errorf("empty column name in references %q", ref)
	}

	return refTable, refColumn, nil
}

// parseConstraintsTag parses a comma-separated constraints tag.
// Both "not_null" and "notnull" spellings are accepted, likewise for primary keys.
func parseConstraintsTag(constraintsTag string) (notNull, unique, primaryKey bool) {
	for _, c := range strings.Split(constraintsTag, ",") {
		switch strings.TrimSpace(c) {
		case "unique":
			unique = true
		case "not_null", "notnull":
			notNull = true
		case "primary_key", "primarykey":
			primaryKey = true
		}
	}
	return notNull, unique, primaryKey
}

// inferPostgresType maps a Go field type to a default Postgres column type.
func inferPostgresType(t reflect.Type) string {
	if t == nil {
		return "JSONB"
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	switch fieldkind.Of(base, nil) {
	case fieldkind.Text:
		return "TEXT"
	case fieldkind.Integer, fieldkind.Unsigned, fieldkind.Enum:
		switch base.Kind() {
		case reflect.Int64, reflect.Uint64, reflect.Uint32, reflect.Uint:
			return "BIGINT"
		case reflect.Int8, reflect.Int16, reflect.Uint8, reflect.Uint16:
			return "SMALLINT"
		}
		return "INTEGER"
	case fieldkind.Float:
		if base.Kind() == reflect.Float32 {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case fieldkind.Bool:
		return "BOOLEAN"
	case fieldkind.Time:
		return "TIMESTAMPTZ"
	case fieldkind.Bytes:
		return "BYTEA"
	}
	return "JSONB"
}
