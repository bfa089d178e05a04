package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/docgen"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/schema"
)

// idParam reads a numeric URL parameter, answering 400 when it is not one.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param."+name)
		return 0, false
	}
	return id, true
}

func ListTemplates(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := app.Templates.List(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "db.list_templates", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"templates": templates,
		})
	}
}

func GetTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := app.Templates.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_template", err)
			return
		}
		render.JSON(w, r, t)
	}
}

func decodeTemplate(w http.ResponseWriter, r *http.Request) (*schema.Template, bool) {
	t := &schema.Template{}
	if err := render.DecodeJSON(r.Body, t); err != nil {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
		return nil, false
	}
	if err := t.Check(); err != nil {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.check_template", "%s", err)
		return nil, false
	}
	return t, true
}

// CreateTemplate stores a new template, or replaces the one with the same
// name.
func CreateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := decodeTemplate(w, r)
		if !ok {
			return
		}
		t.ID = 0
		t.Version = 0

		saved, err := app.Templates.Upsert(r.Context(), t)
		if err != nil {
			httpx.LogStoreError(w, "db.upsert_template", err)
			return
		}
		log.WithFields(log.Fields{"id": saved.ID, "version": saved.Version}).Infof("template %q saved", saved.Name)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

// UpdateTemplate replaces a template. When the body carries a version, the
// update only succeeds against that version.
func UpdateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, ok := decodeTemplate(w, r)
		if !ok {
			return
		}
		t.ID = id

		saved, err := app.Templates.Upsert(r.Context(), t)
		if err != nil {
			httpx.LogStoreError(w, "db.update_template", err)
			return
		}
		log.WithFields(log.Fields{"id": saved.ID, "version": saved.Version}).Infof("template %q updated", saved.Name)
		render.JSON(w, r, saved)
	}
}

func DeleteTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := app.Templates.Delete(r.Context(), id); err != nil {
			httpx.LogStoreError(w, "db.delete_template", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ValidateData checks survey data against a template without storing it.
func ValidateData(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		data := map[string]any{}
		if err := render.DecodeJSON(r.Body, &data); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		t, err := app.Templates.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_template", err)
			return
		}
		violations := t.Validate(data)
		if violations == nil {
			violations = []schema.Violation{}
		}
		render.JSON(w, r, map[string]any{
			"valid":      len(violations) == 0,
			"violations": violations,
		})
	}
}

// TemplateDoc documents a template as markdown (default), outline or
// jsonschema, chosen with the format query parameter.
func TemplateDoc(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := app.Templates.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_template", err)
			return
		}

		switch format := r.URL.Query().Get("format"); format {
		case "", "markdown":
			w.Header().Set("content-type", "text/markdown; charset=utf-8")
			w.Write([]byte(docgen.Markdown(t)))
		case "outline":
			w.Header().Set("content-type", "text/plain; charset=utf-8")
			w.Write([]byte(docgen.Outline(t)))
		case "jsonschema":
			render.JSON(w, r, docgen.JSONSchema(t))
		default:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.doc_format", "unknown format %q", format)
		}
	}
}
