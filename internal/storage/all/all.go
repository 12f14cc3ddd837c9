// Package all links every storage backend and the SQL Server driver into a
// binary. Commands import it for side effects only.
package all

import (
	_ "github.com/microsoft/go-mssqldb"

	_ "pricetrack/internal/storage/csvfile"
	_ "pricetrack/internal/storage/mssql"
	_ "pricetrack/internal/storage/postgres"
	_ "pricetrack/internal/storage/sqlite"
)
