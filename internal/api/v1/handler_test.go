package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"albstats/internal/override"
	"albstats/internal/session"
	"albstats/internal/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	sess := session.NewManager(session.Deps{
		Overrides: override.Open(filepath.Join(t.TempDir(), override.FileName), nil),
		Analysis:  stats.DefaultOptions(),
	})
	sess.SetClock(func() time.Time { return time.Date(2021, time.May, 1, 12, 0, 0, 0, time.UTC) })

	r := gin.New()
	NewHandler(sess, nil).RegisterRoutes(r.Group("/api"))
	return r, sess
}

func exportWorkbook(t *testing.T, header []interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Exportdaten"))
	rows := [][]interface{}{
		header,
		{"Mustermann", "UP", "01.01.1995", "01.10.2014", "01.03.2020", "Senior (WS 2019/20) | Kassier (SS 2021)"},
		{"Musterfrau", "BU", "01.01.2000", "", "", "Barwart (SS 2020)"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, 5+i)
		r := row
		require.NoError(t, f.SetSheetRow("Exportdaten", cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

var fullHeader = []interface{}{"Couleurname", "Mitgliedstatus", "Geburtsdatum", "Reception", "Philistrierung", "Chargen"}

func upload(t *testing.T, r *gin.Engine, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func do(r *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAPI_NoDataset(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["hasData"])

	w = do(r, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Keine Daten")

	w = do(r, http.MethodGet, "/api/imports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["items"])
}

func TestAPI_ImportMissingColumns(t *testing.T) {
	r, _ := newTestRouter(t)

	w := upload(t, r, "Datenexport.xlsx", exportWorkbook(t, []interface{}{"Couleurname", "Mitgliedstatus", "Reception"}))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"Geburtsdatum", "Chargen"}, body["missing"])
	assert.Contains(t, body["error"], "Pflichtspalten")

	w = upload(t, r, "notes.txt", []byte("hi"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, r, "kaputt.xlsx", []byte("not a zip"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_ImportStatsOverridesExport(t *testing.T) {
	r, _ := newTestRouter(t)

	w := upload(t, r, "Datenexport.xlsx", exportWorkbook(t, fullHeader))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	imported := decode(t, w)
	assert.Equal(t, float64(2), imported["members"])
	assert.Equal(t, float64(3), imported["assignments"])

	// 统计
	w = do(r, http.MethodGet, "/api/stats?sort=name&status=UP,BP", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var b stats.Bundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	require.Len(t, b.Table, 2)
	assert.Equal(t, "Musterfrau", b.Table[0].Name)
	assert.Equal(t, "Auswahl (UP + BP)", b.AgeGroups[3].Label)
	mustermann := b.Table[1]
	assert.Equal(t, 1, mustermann.Aktiven)
	assert.Equal(t, 1, mustermann.Philister)

	// 非法参数
	for _, q := range []string{"category=foo", "sort=bogus", "limit=0", "percentile=101", "group=x", "part=y"} {
		w = do(r, http.MethodGet, "/api/stats?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	// 覆盖
	w = do(r, http.MethodPut, "/api/overrides", map[string]string{
		"member": "Mustermann", "role": "Kassier", "semester": "SS2021", "category": "aktiven",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SS 2021", decode(t, w)["semester"])

	w = do(r, http.MethodGet, "/api/stats", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, 2, b.Table[0].Aktiven)

	w = do(r, http.MethodPut, "/api/overrides", map[string]string{"role": "Kassier", "category": "unklare"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPut, "/api/overrides", map[string]string{"category": "aktiven"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPut, "/api/overrides", map[string]string{"role": "Kassier", "semester": "SS 2021", "category": "aktiven"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/overrides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)
	assert.Len(t, listed["items"], 1)
	assert.Len(t, listed["categories"], 5)

	q := url.Values{"member": {"Mustermann"}, "role": {"Kassier"}, "semester": {"SS 2021"}}
	w = do(r, http.MethodDelete, "/api/overrides?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/overrides", nil)
	assert.Empty(t, decode(t, w)["items"])

	// 候选
	w = do(r, http.MethodGet, "/api/candidates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cands stats.Candidates
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cands))
	assert.Len(t, cands.All, 3)

	// 导出
	w = do(r, http.MethodGet, "/api/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, `attachment; filename="Datenexport_chargen_20210501.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.Contains(w.Body.String(), "Mustermann"))

	w = do(r, http.MethodGet, "/api/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Kennzahlen")

	w = do(r, http.MethodGet, "/api/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
