//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/sandeepkv93/product-catalog-service/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		CacheSet,
		IngestionSet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

// InitializeIngestion builds the ingestion pipeline without the HTTP surface.
func InitializeIngestion() (*IngestionRuntime, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		CacheSet,
		IngestionSet,
		wire.Struct(new(IngestionRuntime), "*"),
	))
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	panic(wire.Build(
		ConfigSet,
		provideOpenDB,
		NewMigrationRunner,
	))
}
