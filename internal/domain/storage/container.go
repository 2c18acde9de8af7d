package storage

import (
	"myson/internal/domain/admins"
	"myson/internal/domain/catalog"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	Catalog catalog.Store
	Admins  admins.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Catalog: catalog.NewRepository(db),
		Admins:  admins.NewRepository(db),
	}
}
