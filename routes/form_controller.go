package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/files"
	"github.com/mbolis/hvac-survey/form"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
)

func writePage(w http.ResponseWriter, status int, code string, render func(io.Writer) error) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render(w); err != nil {
		log.Errorf("%s.render: %s", code, err)
	}
}

func FormIndex(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := app.Templates.List(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "db.list_templates", err)
			return
		}
		writePage(w, http.StatusOK, "form.index", form.IndexPage{Templates: templates}.Render)
	}
}

// formPage loads what the entry page of a template needs.
func formPage(app app.App, r *http.Request, templateID int) (form.Page, error) {
	t, err := app.Templates.Get(r.Context(), templateID)
	if err != nil {
		return form.Page{}, err
	}
	equipment, err := app.Equipment.List(r.Context())
	if err != nil {
		return form.Page{}, err
	}
	return form.Page{
		Template:  t,
		Equipment: equipment,
		Action:    fmt.Sprintf("/forms/%d", t.ID),
	}, nil
}

func FormPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		page, err := formPage(app, r, id)
		if err != nil {
			httpx.LogStoreError(w, "form.load", err)
			return
		}

		page.Survey = model.Survey{SurveyDate: time.Now().Format(schema.DateLayout)}
		if saved := r.URL.Query().Get("saved"); saved != "" {
			page.Message = fmt.Sprintf("Survey %s saved.", saved)
		}
		writePage(w, http.StatusOK, "form.page", page.Render)
	}
}

// FormSubmit handles the entry page: item add/remove buttons redisplay the
// page, a plain submission stores the survey or shows its violations.
func FormSubmit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		err := r.ParseMultipartForm(maxUpload)
		if errors.Is(err, http.ErrNotMultipart) {
			err = r.ParseForm()
		}
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "form.parse", "%s", err)
			return
		}

		page, err := formPage(app, r, id)
		if err != nil {
			httpx.LogStoreError(w, "form.load", err)
			return
		}

		s, err := form.DecodeSurvey(page.Template, r.PostForm)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "form.decode", "%s", err)
			return
		}
		if s.SurveyData, err = storeUploads(app, r, page.Template.Fields(), s.SurveyData); err != nil {
			httpx.LogStoreError(w, "form.upload", err)
			return
		}

		data, acted, err := form.Apply(s.SurveyData, r.PostForm)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "form.action", "%s", err)
			return
		}
		if acted {
			s.SurveyData = data
			page.Survey = s
			writePage(w, http.StatusOK, "form.page", page.Render)
			return
		}

		if err := s.Check(); err != nil {
			page.Survey = s
			page.Message = err.Error()
			writePage(w, http.StatusUnprocessableEntity, "form.page", page.Render)
			return
		}

		saved, violations, err := submit(r.Context(), app, s)
		if err != nil {
			httpx.LogStoreError(w, "form.submit", err)
			return
		}
		if len(violations) > 0 {
			page.Survey = s
			page.Violations = violations
			page.Message = "Please correct the highlighted fields."
			writePage(w, http.StatusUnprocessableEntity, "form.page", page.Render)
			return
		}

		target := url.URL{Path: page.Action, RawQuery: "saved=" + strconv.Itoa(saved.ID)}
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	}
}

// storeUploads saves the files posted for file fields and puts their
// artifacts into data.
func storeUploads(app app.App, r *http.Request, fields schema.Fields, data map[string]any) (map[string]any, error) {
	if r.MultipartForm == nil {
		return data, nil
	}
	for name, headers := range r.MultipartForm.File {
		if len(headers) == 0 || headers[0].Filename == "" {
			continue
		}
		p, err := schema.ParsePath(name)
		if err != nil {
			continue
		}
		if f, ok := fields.At(p); !ok || f.Kind != schema.KindFile {
			continue
		}

		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		a, err := app.Files.Put(r.Context(), f, files.Metadata{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("content-type"),
		})
		f.Close()
		if err != nil {
			return nil, err
		}
		if data, err = schema.SetValue(data, p, a.Value()); err != nil {
			return nil, err
		}
	}
	return data, nil
}
