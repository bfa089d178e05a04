package app

import (
	"github.com/go-chi/oauth"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/files"
	"github.com/mbolis/hvac-survey/store"
)

// App is what every handler gets to work with.
type App struct {
	*store.Store
	*oauth.BearerServer
	config.Config
	Files files.Store
}
