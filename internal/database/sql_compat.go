package database

import (
	"os"
	"regexp"
	"strings"
)

// GetDBDriver returns the active database driver name.
func GetDBDriver() string {
	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	if driver == "" {
		driver = "postgres"
	}
	return strings.ToLower(driver)
}

// IsMySQL returns true if using MySQL/MariaDB.
func IsMySQL() bool {
	driver := GetDBDriver()
	return driver == "mysql" || driver == "mariadb"
}

// IsPostgreSQL returns true if using PostgreSQL.
func IsPostgreSQL() bool {
	return GetDBDriver() == "postgres"
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// ConvertPlaceholders converts PostgreSQL placeholders ($1, $2) to MySQL
// placeholders (?). Queries are written in PostgreSQL form and converted
// for MySQL at execution time.
func ConvertPlaceholders(query string) string {
	if !IsMySQL() {
		return query
	}

	placeholders := placeholderRe.FindAllString(query, -1)
	result := query
	for _, placeholder := range placeholders {
		result = strings.Replace(result, placeholder, "?", 1)
	}

	// MySQL is case-insensitive by default.
	result = strings.ReplaceAll(result, " ILIKE ", " LIKE ")
	result = strings.ReplaceAll(result, " ilike ", " LIKE ")

	return result
}

var returningRe = regexp.MustCompile(`(?is)\s+RETURNING\s+.*$`)

// ConvertReturning handles RETURNING clause differences. PostgreSQL
// supports INSERT ... RETURNING; MySQL needs LastInsertId() after the
// insert. The boolean reports whether the caller must use LastInsertId.
func ConvertReturning(query string) (string, bool) {
	if !IsMySQL() {
		return query, false
	}
	if returningRe.MatchString(query) {
		return returningRe.ReplaceAllString(query, ""), true
	}
	return query, false
}
