package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/model"
)

func ListEquipment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.Equipment.List(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "db.list_equipment", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"equipment": list,
		})
	}
}

func GetEquipment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		e, err := app.Equipment.Get(r.Context(), id)
		if err != nil {
			httpx.LogStoreError(w, "db.get_equipment", err)
			return
		}
		render.JSON(w, r, e)
	}
}

func decodeEquipment(w http.ResponseWriter, r *http.Request) (model.Equipment, bool) {
	e := model.Equipment{}
	if err := render.DecodeJSON(r.Body, &e); err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
		return e, false
	}
	if err := e.Check(); err != nil {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.check_equipment", "%s", err)
		return e, false
	}
	return e, true
}

func CreateEquipment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := decodeEquipment(w, r)
		if !ok {
			return
		}
		e, err := app.Equipment.Create(r.Context(), e)
		if err != nil {
			httpx.LogStoreError(w, "db.insert_equipment", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, e)
	}
}

func UpdateEquipment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		e, ok := decodeEquipment(w, r)
		if !ok {
			return
		}
		e.ID = id
		e, err := app.Equipment.Update(r.Context(), e)
		if err != nil {
			httpx.LogStoreError(w, "db.update_equipment", err)
			return
		}
		render.JSON(w, r, e)
	}
}

func DeleteEquipment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := app.Equipment.Delete(r.Context(), id); err != nil {
			httpx.LogStoreError(w, "db.delete_equipment", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := app.Stats(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "db.stats", err)
			return
		}
		render.JSON(w, r, stats)
	}
}
