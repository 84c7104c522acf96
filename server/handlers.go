package server

import (
	"database/sql"

	"github.com/onnwee/steam-chat-bot/binding"
)

// SteamStatus is what the status endpoints read from the Steam client.
type SteamStatus interface {
	HasKey() bool
	CacheLen() int
}

// Deps are the collaborators the HTTP handlers inspect.
type Deps struct {
	Bindings *binding.Registry
	Steam    SteamStatus
	DB       *sql.DB // nil unless bindings live in Postgres

	AdminToken    string
	AdminUsername string
	AdminPassword string
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	deps Deps
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}
