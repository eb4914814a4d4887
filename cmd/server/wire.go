// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"gratias_backend/internal/app"
	"gratias_backend/internal/claims"
	"gratias_backend/internal/config"
	"gratias_backend/internal/firebase"
	"gratias_backend/internal/jobs"
	"gratias_backend/internal/platform/database"
	"gratias_backend/internal/platform/logger"
	"gratias_backend/internal/shared"
	"gratias_backend/internal/site"
	"gratias_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewMigratedGORM,
		provideCleanup,

		// Firebase Service
		firebase.NewService,
		wire.Bind(new(shared.TokenVerifier), new(*firebase.Service)),
		wire.Bind(new(shared.ClaimsStore), new(*firebase.Service)),
		wire.Bind(new(shared.TopicMessenger), new(*firebase.Service)),
		wire.Bind(new(shared.AccountDeleter), new(*firebase.Service)),

		// Claims
		claims.NewSynchronizer,
		wire.Bind(new(claims.Syncer), new(*claims.Synchronizer)),

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.UserProvider), new(user.Service)),
		user.NewHandler,

		// Sites
		site.NewGORMRepository,
		site.NewService,
		site.NewHandler,

		// Jobs
		jobs.NewClaimsReconcileJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
