package repomanager

import (
	"context"
	"database/sql"

	"pixvault/internal/dbx"
	"pixvault/internal/server/repositories/images"
	"pixvault/internal/server/repositories/pendingusers"
	"pixvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	PendingUsers(db dbx.DBTX) pendingusers.Repository
	Images(db dbx.DBTX) images.Repository
}
