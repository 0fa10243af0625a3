package db

import "database/sql"

// DB wraps the standard sql.DB so callers depend on this package,
// not on the driver.
type DB struct {
	*sql.DB
}
