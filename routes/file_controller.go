package routes

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/files"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
)

// maxUpload bounds the size of a multipart request.
const maxUpload = 32 << 20

// UploadFile stores the "file" part of a multipart request. The returned
// artifact is the value to put into a file field.
func UploadFile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.form_file", "%s", err)
			return
		}
		defer f.Close()

		a, err := app.Files.Put(r.Context(), f, files.Metadata{
			Filename:    header.Filename,
			ContentType: header.Header.Get("content-type"),
		})
		if err != nil {
			httpx.LogInternalError(w, "files.put", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, a)
	}
}

func DownloadFile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, a, err := app.Files.Open(r.Context(), chi.URLParam(r, "ref"))
		if err != nil {
			httpx.LogStoreError(w, "files.open", err)
			return
		}
		defer rc.Close()

		w.Header().Set("content-type", a.ContentType)
		if a.Size > 0 {
			w.Header().Set("content-length", strconv.FormatInt(a.Size, 10))
		}
		if a.Filename != "" {
			w.Header().Set("content-disposition", "inline; filename="+strconv.Quote(a.Filename))
		}
		if _, err := io.Copy(w, rc); err != nil {
			log.Warnf("files.download %s: %s", a.Ref, err)
		}
	}
}
