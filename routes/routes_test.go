package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/database"
	"github.com/mbolis/hvac-survey/files"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chiller = `{
	"name": "Chiller",
	"baseFields": {
		"location": {"kind": "text", "label": "Location", "required": true}
	},
	"specificFields": {
		"capacity": {"kind": "number", "label": "Capacity (kW)"},
		"refrigerant": {"kind": "select", "label": "Refrigerant", "options": [{"value": "R-134a"}, {"value": "R-410A"}]},
		"nameplate": {"kind": "file", "label": "Nameplate photo"}
	}
}`

type testServer struct {
	handler http.Handler
	store   *store.Store
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		Files:       config.Files{Backend: config.FilesLocal, Dir: t.TempDir()},
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	artifacts, err := files.New(context.Background(), cfg.Files)
	require.NoError(t, err)

	st := store.New(db)
	require.NoError(t, st.Users.Create(context.Background(), "admin", "s3cret"))

	ts := &testServer{
		store: st,
		handler: Wire(app.App{
			Store:        st,
			BearerServer: httpx.NewBearerServer(st.Users, cfg),
			Config:       cfg,
			Files:        artifacts,
		}),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "s3cret")
	resp := ts.serve(req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	ts.token = tokens.AccessToken

	return ts
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	ts.handler.ServeHTTP(resp, req)
	return resp
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("authorization", "Bearer "+ts.token)
	if body != "" {
		req.Header.Set("content-type", "application/json")
	}
	return ts.serve(req)
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body
}

// setup creates the chiller template and one piece of equipment.
func (ts *testServer) setup(t *testing.T) (templateID, equipmentID int) {
	t.Helper()
	resp := ts.do(http.MethodPost, "/api/admin/templates", chiller)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	templateID = int(decode(t, resp)["id"].(float64))

	resp = ts.do(http.MethodPost, "/api/admin/equipment", `{"tag": "CH-01", "category": "chiller"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	equipmentID = int(decode(t, resp)["id"].(float64))
	return
}

func TestAPI_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.serve(httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "wrong")
	assert.Equal(t, http.StatusUnauthorized, ts.serve(req).Code)
}

func TestAPI_Templates(t *testing.T) {
	ts := newTestServer(t)
	templateID, _ := ts.setup(t)

	resp := ts.do(http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode(t, resp)["templates"], 1)

	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/templates/%d", templateID), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Chiller", decode(t, resp)["name"])

	resp = ts.do(http.MethodGet, "/api/templates/999", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.do(http.MethodPost, "/api/admin/templates", `{"name": "Bad", "baseFields": {"x": {"kind": "select", "label": "X"}}, "specificFields": {}}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/templates/%d/doc?format=outline", templateID), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "refrigerant")

	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/templates/%d/doc?format=jsonschema", templateID), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "object", decode(t, resp)["type"])
}

func TestAPI_ValidateData(t *testing.T) {
	ts := newTestServer(t)
	templateID, _ := ts.setup(t)
	target := fmt.Sprintf("/api/templates/%d/validate", templateID)

	resp := ts.do(http.MethodPost, target, `{"location": "Roof", "refrigerant": "R-410A"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode(t, resp)
	assert.Equal(t, true, body["valid"])
	assert.Empty(t, body["violations"])

	resp = ts.do(http.MethodPost, target, `{"capacity": "lots", "refrigerant": "R-22"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	body = decode(t, resp)
	assert.Equal(t, false, body["valid"])

	reasons := []string{}
	for _, v := range body["violations"].([]any) {
		reasons = append(reasons, v.(map[string]any)["reason"].(string))
	}
	assert.ElementsMatch(t, []string{"required-missing", "type-mismatch", "invalid-option"}, reasons)
}

func TestAPI_Surveys(t *testing.T) {
	ts := newTestServer(t)
	templateID, equipmentID := ts.setup(t)

	survey := func(data string) string {
		return fmt.Sprintf(`{"equipmentId": %d, "templateId": %d, "surveyDate": "2024-03-01", "preparedBy": "J. Doe", "surveyData": %s}`,
			equipmentID, templateID, data)
	}

	resp := ts.do(http.MethodPost, "/api/surveys", survey(`{"capacity": 350}`))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Len(t, decode(t, resp)["violations"], 1)

	resp = ts.do(http.MethodPost, "/api/surveys", `{"templateId": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(http.MethodPost, "/api/surveys", survey(`{"location": "Roof", "capacity": 350, "notes": "extra"}`))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode(t, resp)
	assert.EqualValues(t, 1, created["templateVersion"])
	assert.Equal(t, map[string]any{"location": "Roof", "capacity": 350.0, "notes": "extra"}, created["surveyData"])
	surveyID := int(created["id"].(float64))

	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/surveys?equipmentId=%d", equipmentID), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"preparedBy":"J. Doe"`)

	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d", surveyID), "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, decode(t, resp)["surveys"])

	resp = ts.do(http.MethodDelete, fmt.Sprintf("/api/admin/templates/%d", templateID), "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.do(http.MethodDelete, fmt.Sprintf("/api/admin/surveys/%d", surveyID), "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d", surveyID), "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAPI_ExportImport(t *testing.T) {
	ts := newTestServer(t)
	templateID, equipmentID := ts.setup(t)

	csv := fmt.Sprintf("_equipmentId,_surveyDate,_preparedBy,location,capacity,refrigerant\n"+
		"%d,2024-03-01,J. Doe,Roof,350,R-134a\n"+
		"%d,2024-03-02,J. Doe,,abc,R-22\n", equipmentID, equipmentID)

	resp := ts.do(http.MethodPost, fmt.Sprintf("/api/templates/%d/import?format=csv&dryRun=true", templateID), csv)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode(t, resp)
	assert.EqualValues(t, 2, body["totalRows"])
	assert.EqualValues(t, 1, body["valid"])
	assert.EqualValues(t, 0, body["imported"])
	assert.Len(t, body["errors"], 3)

	resp = ts.do(http.MethodPost, fmt.Sprintf("/api/templates/%d/import?format=csv", templateID), csv)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.EqualValues(t, 1, decode(t, resp)["imported"])

	resp = ts.do(http.MethodGet, fmt.Sprintf("/api/templates/%d/export?format=csv", templateID), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("content-disposition"), "attachment")
	assert.Contains(t, resp.Body.String(), "Roof,350,R-134a")
}

func TestAPI_Files(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "plate.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("serial 1234"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("content-type", mw.FormDataContentType())
	req.Header.Set("authorization", "Bearer "+ts.token)
	resp := ts.serve(req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	artifact := decode(t, resp)
	assert.Equal(t, "plate.txt", artifact["filename"])

	resp = ts.do(http.MethodGet, "/api/files/"+artifact["ref"].(string), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "serial 1234", resp.Body.String())

	resp = ts.do(http.MethodGet, "/api/files/not-a-ref", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestForms_RedirectToLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.serve(httptest.NewRequest(http.MethodGet, "/forms", nil))
	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/login?goto=%2Fforms", resp.Header().Get("location"))

	resp = ts.serve(httptest.NewRequest(http.MethodGet, "/login?goto=/forms", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `name="password"`)
}

func TestForms_LoginAndSubmit(t *testing.T) {
	ts := newTestServer(t)
	templateID, equipmentID := ts.setup(t)

	form := url.Values{"username": {"admin"}, "password": {"s3cret"}, "goto": {"/forms"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	resp := ts.serve(req)
	require.Equal(t, http.StatusSeeOther, resp.Code, resp.Body.String())
	assert.Equal(t, "/forms", resp.Header().Get("location"))
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 2)

	withCookies := func(req *http.Request) *http.Request {
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return req
	}

	resp = ts.serve(withCookies(httptest.NewRequest(http.MethodGet, "/forms", nil)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Chiller")

	target := fmt.Sprintf("/forms/%d", templateID)
	resp = ts.serve(withCookies(httptest.NewRequest(http.MethodGet, target, nil)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `name="refrigerant"`)

	// missing location
	values := url.Values{
		"_equipmentId": {fmt.Sprint(equipmentID)},
		"_surveyDate":  {"2024-03-01"},
		"_preparedBy":  {"J. Doe"},
		"capacity":     {"350"},
	}
	post := func(values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		return ts.serve(withCookies(req))
	}
	resp = post(values)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	values.Set("location", "Roof")
	resp = post(values)
	require.Equal(t, http.StatusSeeOther, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Header().Get("location"), target+"?saved=")

	surveys, err := ts.store.Surveys.ListByTemplate(context.Background(), templateID)
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.Equal(t, map[string]any{"location": "Roof", "capacity": 350.0}, surveys[0].SurveyData)
}

func TestRoot_RedirectsToForms(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/forms", resp.Header().Get("location"))
}
