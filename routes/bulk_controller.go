package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/render"
	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/bulk"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
)

var reNoIdent = regexp.MustCompile(`\W+`)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportSurveys downloads the surveys of a template as csv (default) or
// xlsx.
func ExportSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "xlsx" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.export_format", "unknown format %q", format)
			return
		}

		t, err := app.Templates.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_template", err)
			return
		}
		surveys, err := app.Surveys.ListByTemplate(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.list_surveys", err)
			return
		}
		table := bulk.Export(t, surveys)

		filename := reNoIdent.ReplaceAllLiteralString(t.Name, "_") + "." + format
		w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if format == "xlsx" {
			w.Header().Set("content-type", contentTypeXLSX)
			err = bulk.WriteXLSX(w, table, "Surveys")
		} else {
			w.Header().Set("content-type", "text/csv; charset=utf-8")
			err = bulk.WriteCSV(w, table)
		}
		if err != nil {
			log.Errorf("export.write: %s", err)
		}
	}
}

// ImportSurveys loads surveys of a template from a csv or xlsx upload,
// sent as the "file" part of a multipart request or as the raw body. With
// dryRun=true the rows are only checked.
func ImportSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

		var body io.Reader = r.Body
		if f, _, err := r.FormFile("file"); err == nil {
			defer f.Close()
			body = f
		} else if !errors.Is(err, http.ErrNotMultipart) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.form_file", "%s", err)
			return
		}

		var (
			table bulk.Table
			err   error
		)
		switch format := r.URL.Query().Get("format"); format {
		case "", "csv":
			table, err = bulk.ReadCSV(body)
		case "xlsx":
			table, err = bulk.ReadXLSX(body)
		default:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.import_format", "unknown format %q", format)
			return
		}
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "import.read", "%s", err)
			return
		}

		t, err := app.Templates.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_template", err)
			return
		}

		result := bulk.Import(t, table)
		dryRun := r.URL.Query().Get("dryRun") == "true"
		if !dryRun {
			if err := bulk.Save(r.Context(), app.Surveys, t, result); err != nil {
				httpx.LogInternalError(w, "import.save", err)
				return
			}
			log.WithFields(log.Fields{
				"template": t.Name,
				"imported": result.Imported,
				"skipped":  result.Skipped,
				"failed":   len(result.Errors),
			}).Info("surveys imported")
		}

		render.JSON(w, r, map[string]any{
			"dryRun":    dryRun,
			"totalRows": result.TotalRows,
			"valid":     len(result.Surveys),
			"imported":  result.Imported,
			"skipped":   result.Skipped,
			"errors":    result.Errors,
		})
	}
}
