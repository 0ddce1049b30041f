// Package all links every storage backend into the binary. Import it for its
// side effects so storage.New can resolve any supported kind.
package all

import (
	_ "github.com/josefarias3108/projeto-jus/internal/storage/mssql"
	_ "github.com/josefarias3108/projeto-jus/internal/storage/mysql"
	_ "github.com/josefarias3108/projeto-jus/internal/storage/postgres"
	_ "github.com/josefarias3108/projeto-jus/internal/storage/sqlite"
)
