package handler

import (
	"layoutsync/internal/app/assets"
	"layoutsync/internal/app/collab"
	"layoutsync/internal/app/version"
	"layoutsync/internal/configs"
)

// AppDeps bundles the services the HTTP layer depends on.
type AppDeps struct {
	Hub      *collab.Hub
	Config   *configs.AppConfig
	Versions *version.Service
	Assets   assets.Service
}
