package query

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// Read-only query facade for collaborating reporting tools. Callers get the
// live schema from information_schema and may run single-statement SELECT
// queries with a row cap; everything else is rejected before it reaches the
// store.

const (
	// DefaultRowLimit caps result sets when the caller does not ask for
	// less.
	DefaultRowLimit = 1000
	// MaxRowLimit is the hard ceiling a caller cannot exceed.
	MaxRowLimit = 10000
)

// ColumnInfo describes one column of a store table.
type ColumnInfo struct {
	Name     string `gorm:"column:column_name" json:"name"`
	Type     string `gorm:"column:column_type" json:"type"`
	Nullable string `gorm:"column:is_nullable" json:"nullable"`
	Key      string `gorm:"column:column_key" json:"key"`
}

// TableInfo describes one store table with its columns in ordinal order.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Schema introspects the connected database and returns every table with
// its columns.
func Schema(db *gorm.DB) ([]TableInfo, error) {
	type schemaRow struct {
		TableName string `gorm:"column:table_name"`
		ColumnInfo
	}
	var rows []schemaRow
	err := db.Raw(`
		SELECT table_name, column_name, column_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}
	var tables []TableInfo
	for _, row := range rows {
		if len(tables) == 0 || tables[len(tables)-1].Name != row.TableName {
			tables = append(tables, TableInfo{Name: row.TableName})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, row.ColumnInfo)
	}
	return tables, nil
}

var forbiddenKeywords = []string{
	"insert", "update", "delete", "replace", "drop", "create", "alter",
	"truncate", "rename", "grant", "revoke", "lock", "unlock", "call",
	"load", "outfile", "infile", "set", "use", "handler", "prepare",
	"execute",
}

var keywordPattern = regexp.MustCompile(`[a-z_]+`)

// ValidateReadOnly checks that a statement is a single SELECT or WITH query
// with no mutating keywords. It is a gate, not a parser: anything doubtful
// is rejected.
func ValidateReadOnly(sqlText string) error {
	s := strings.TrimSpace(sqlText)
	if s == "" {
		return fmt.Errorf("empty query")
	}
	s = strings.TrimSuffix(s, ";")
	if strings.Contains(s, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return fmt.Errorf("only SELECT queries are allowed")
	}
	for _, word := range keywordPattern.FindAllString(lower, -1) {
		for _, forbidden := range forbiddenKeywords {
			if word == forbidden {
				return fmt.Errorf("forbidden keyword %q", forbidden)
			}
		}
	}
	return nil
}

// ClampLimit normalizes a caller-provided row limit into the allowed range.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRowLimit
	}
	if limit > MaxRowLimit {
		return MaxRowLimit
	}
	return limit
}

// ExecuteReadOnly validates and runs one query, returning the column names
// and at most limit rows with values rendered as strings.
func ExecuteReadOnly(db *gorm.DB, sqlText string, limit int) ([]string, [][]interface{}, error) {
	if err := ValidateReadOnly(sqlText); err != nil {
		return nil, nil, err
	}
	limit = ClampLimit(limit)

	rows, err := db.Raw(strings.TrimSuffix(strings.TrimSpace(sqlText), ";")).Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	var result [][]interface{}
	for rows.Next() {
		if len(result) >= limit {
			break
		}
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, result, nil
}
