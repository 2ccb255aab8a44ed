package router

import (
	userapp "github.com/oksasatya/user-accounts-api/internal/application"
	"github.com/oksasatya/user-accounts-api/internal/container"
	pginfra "github.com/oksasatya/user-accounts-api/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/user-accounts-api/internal/interface/http"
	"github.com/oksasatya/user-accounts-api/internal/router/modules"
)

func buildUserHandler() *handlers.UserHandler {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := userapp.NewService(
		repo,
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		cfg.UserCacheTTL,
	)

	return handlers.NewUserHandler(service, container.GetLogger())
}

// InitModules wires all application modules into the router registry.
// Called once during startup.
func InitModules(r *Registry) {
	r.Add(modules.NewUserModule(buildUserHandler()))
	r.Add(modules.NewHealthModule())
}
