package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web"
)

func boolPtr(b bool) *bool { return &b }

// testServerWith boots a full API on a temp database seeded with the given
// items.
func testServerWith(t *testing.T, items []bank.Item) (*database.DB, *httptest.Server, *http.Client) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	require.NoError(t, db.InitializeDefaults())
	require.NoError(t, db.ReplaceItemsBySource(database.ItemSourceSeed, items))

	itemBank := bank.New()
	server := web.NewServer(db, itemBank, 0, "", nil, true)
	require.NoError(t, server.Handlers().ReloadBank())

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	return db, ts, client
}

// testServer seeds two deterministic level-2 items in LF2/vitalzeichen.
func testServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	_, ts, client := testServerWith(t, []bank.Item{
		{LF: "LF2", Area: "vitalzeichen", Level: 2, Type: bank.TypeTF,
			Payload: bank.Payload{Question: "Fieber ab 38,0 °C?", AnswerTrue: boolPtr(true)}},
		{LF: "LF2", Area: "vitalzeichen", Level: 2, Type: bank.TypeTF,
			Payload: bank.Payload{Question: "Puls 60-80/min normal?", AnswerTrue: boolPtr(true)}},
	})
	return ts, client
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func setupTeacher(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/setup", map[string]string{
		"username": "lehrer",
		"password": "sehr-geheim",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSetupIsSingleUse(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/setup", map[string]string{
		"username": "zweiter",
		"password": "noch-geheimer",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStudentRoutesRequireSetup(t *testing.T) {
	ts, client := testServer(t)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "anna23"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRegisterStudent(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "anna23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["created"])

	// Re-registration is idempotent
	resp = postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "anna23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, false, body["created"])

	// Codes carry no free text
	resp = postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "Anna Meier, Klasse 10b"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDiagnosticFlow(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "anna23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Open a round: default level 2, items stripped of answers
	resp = postJSON(t, client, ts.URL+"/api/diagnostics", map[string]string{
		"student_code": "anna23",
		"lf":           "LF2",
		"area":         "vitalzeichen",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	opened := decodeBody(t, resp)
	assert.Equal(t, float64(2), opened["level"])
	attemptID := opened["attempt_id"].(string)
	require.NotEmpty(t, attemptID)

	items := opened["items"].([]any)
	require.Len(t, items, 2)
	for _, raw := range items {
		item := raw.(map[string]any)
		_, leaked := item["answer_true"]
		assert.False(t, leaked, "served item leaks the answer")
	}

	// Submit all-correct answers
	responses := make([]map[string]any, len(items))
	for i := range responses {
		responses[i] = map[string]any{"bool": true}
	}
	resp = postJSON(t, client, ts.URL+"/api/diagnostics/"+attemptID+"/submit",
		map[string]any{"responses": responses})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	graded := decodeBody(t, resp)
	assert.Equal(t, float64(2), graded["score"])
	assert.Equal(t, float64(2), graded["max_score"])
	assert.Equal(t, float64(3), graded["next_level"], "perfect round steps up")

	// Attempts are single use
	resp = postJSON(t, client, ts.URL+"/api/diagnostics/"+attemptID+"/submit",
		map[string]any{"responses": responses})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The result feeds the recommendation
	r, err := client.Get(ts.URL + "/api/students/anna23/lernfelder/LF2/recommendations")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, r.StatusCode)
	recs := decodeBody(t, r)
	for _, raw := range recs["recommendations"].([]any) {
		rec := raw.(map[string]any)
		if rec["area"] == "vitalzeichen" {
			assert.Equal(t, float64(3), rec["level"])
		} else {
			assert.Equal(t, float64(2), rec["level"])
		}
	}
}

func TestEmptyAreaYieldsEmptyBundle(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "anna23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// No items are authored for LF1; the round comes back empty and no
	// attempt is opened
	resp = postJSON(t, client, ts.URL+"/api/diagnostics", map[string]string{
		"student_code": "anna23",
		"lf":           "LF1",
		"area":         "rolle_team",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Empty(t, body["items"])
	_, opened := body["attempt_id"]
	assert.False(t, opened, "empty round must not open an attempt")

	resp = postJSON(t, client, ts.URL+"/api/practice/items", map[string]any{
		"student_code": "anna23",
		"lf":           "LF1",
		"area":         "rolle_team",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Empty(t, body["items"])
}

func TestPracticeFlow(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "ben7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, ts.URL+"/api/practice/items", map[string]any{
		"student_code": "ben7",
		"lf":           "LF2",
		"area":         "vitalzeichen",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bundle := decodeBody(t, resp)
	items := bundle["items"].([]any)
	require.NotEmpty(t, items)
	itemID := items[0].(map[string]any)["id"].(float64)

	resp = postJSON(t, client, ts.URL+"/api/practice/submit", map[string]any{
		"student_code": "ben7",
		"item_id":      int64(itemID),
		"response":     map[string]any{"bool": false},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, false, result["correct"])
}

func TestPracticeLogsRoundLevel(t *testing.T) {
	// Only a level-1 item exists, so the round recommended at level 2
	// serves a fallback item from the level-1 pool.
	db, ts, client := testServerWith(t, []bank.Item{
		{LF: "LF2", Area: "vitalzeichen", Level: 1, Type: bank.TypeTF,
			Payload: bank.Payload{Question: "Atemfrequenz zählt zu den Vitalzeichen?", AnswerTrue: boolPtr(true)}},
	})
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "ben7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, ts.URL+"/api/practice/items", map[string]any{
		"student_code": "ben7",
		"lf":           "LF2",
		"area":         "vitalzeichen",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bundle := decodeBody(t, resp)
	require.Equal(t, float64(2), bundle["level"])
	itemID := bundle["items"].([]any)[0].(map[string]any)["id"].(float64)

	resp = postJSON(t, client, ts.URL+"/api/practice/submit", map[string]any{
		"student_code": "ben7",
		"item_id":      int64(itemID),
		"response":     map[string]any{"bool": true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The attempt is logged at the round's level, not the fallback item's
	var level int
	require.NoError(t, db.QueryRow(
		"SELECT level FROM practice_attempts WHERE student_code = 'ben7'").Scan(&level))
	assert.Equal(t, 2, level)
}

func TestPracticeMix(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp := postJSON(t, client, ts.URL+"/api/students", map[string]string{"code": "ben7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// No area requests the per-area mix
	resp = postJSON(t, client, ts.URL+"/api/practice/items", map[string]any{
		"student_code": "ben7",
		"lf":           "LF2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bundle := decodeBody(t, resp)
	assert.Equal(t, true, bundle["mix"])
	// Only one area of LF2 has items seeded, so the mix holds one item
	items := bundle["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "vitalzeichen", items[0].(map[string]any)["area"])

	resp = postJSON(t, client, ts.URL+"/api/practice/items", map[string]any{
		"student_code": "ben7",
		"lf":           "LF99",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestTeacherRoutesRequireSession(t *testing.T) {
	ts, _ := testServer(t)

	// Client without the session cookie jar
	resp, err := http.Get(ts.URL + "/api/teacher/students")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTeacherOverviewAndStats(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	resp, err := client.Get(ts.URL + "/api/teacher/students")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/teacher/lernfelder/LF2/overview")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/teacher/lernfelder/LF99/overview")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	ts, client := testServer(t)

	resp, err := client.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["bank_items"])
}

func TestItemImport(t *testing.T) {
	ts, client := testServer(t)
	setupTeacher(t, client, ts.URL)

	doc := `[{"lf":"LF7","area":"notfallbilder","level":2,"type":"tf","payload":{"q":"Bewusstlose in stabile Seitenlage?","answer_true":true}}]`
	resp, err := client.Post(ts.URL+"/api/teacher/items/import", "application/json", bytes.NewReader([]byte(doc)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["imported"])
	assert.Equal(t, float64(3), body["bank_items"])

	// Broken documents change nothing
	resp, err = client.Post(ts.URL+"/api/teacher/items/import", "application/json", bytes.NewReader([]byte(`[{"lf":"LF9"}]`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
