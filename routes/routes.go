package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/routes/middlewares"
)

const idPattern = `{id:^\d+$}`

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Mount("/api", apiRouter(app))

	root.Get("/login", LoginPage(app))
	root.Post("/login", LoginSubmit(app))
	root.Route("/forms", func(r chi.Router) {
		r.Use(middlewares.CookieAuth(app.BearerServer), middlewares.Authenticated(app.TokenSecret))

		r.Get("/", FormIndex(app))
		r.Get("/"+idPattern, FormPage(app))
		r.Post("/"+idPattern, FormSubmit(app))
	})
	root.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/forms", http.StatusFound)
	})

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		r.Get("/templates", ListTemplates(app))
		r.Get("/templates/"+idPattern, GetTemplate(app))
		r.Get("/templates/"+idPattern+"/doc", TemplateDoc(app))
		r.Post("/templates/"+idPattern+"/validate", ValidateData(app))
		r.Get("/templates/"+idPattern+"/export", ExportSurveys(app))
		r.Post("/templates/"+idPattern+"/import", ImportSurveys(app))

		r.Get("/equipment", ListEquipment(app))
		r.Get("/equipment/"+idPattern, GetEquipment(app))

		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get("/surveys/"+idPattern, GetSurvey(app))

		r.Post("/files", UploadFile(app))
		r.Get("/files/{ref}", DownloadFile(app))

		r.Get("/stats", GetStats(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Post("/templates", CreateTemplate(app))
		r.Put("/templates/"+idPattern, UpdateTemplate(app))
		r.Delete("/templates/"+idPattern, DeleteTemplate(app))

		r.Post("/equipment", CreateEquipment(app))
		r.Put("/equipment/"+idPattern, UpdateEquipment(app))
		r.Delete("/equipment/"+idPattern, DeleteEquipment(app))

		r.Delete("/surveys/"+idPattern, DeleteSurvey(app))
	})

	return api
}
