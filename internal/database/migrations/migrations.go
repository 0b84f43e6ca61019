package migrations

import "embed"

// Migrations — SQL-миграции таблицы local_storage, встроенные в бинарник.
//
//go:embed *.sql
var Migrations embed.FS
