package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	"github.com/zennieheo/hackathon2024-BE/services/ledger"
	"github.com/zennieheo/hackathon2024-BE/services/rabbitmq"
	"github.com/zennieheo/hackathon2024-BE/services/report"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePublisher struct {
	messages []rabbitmq.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, m rabbitmq.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, m)
	return nil
}

// failingStore breaks every read so internal errors can be observed.
type failingStore struct {
	*ledger.MemoryStore
}

func (failingStore) SumByGroup(context.Context, string, string) ([]ledger.SlotSums, error) {
	return nil, errors.New("connection refused: secret-host:3306")
}

type fixture struct {
	engine    *gin.Engine
	store     ledger.Store
	snapshots *report.MemorySnapshotStore
	publisher *fakePublisher
}

func newFixture(t *testing.T, store ledger.Store, withQueue bool) *fixture {
	t.Helper()
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	l := ledger.New(store, ledger.WithClock(func() time.Time { return now }))
	snapshots := report.NewMemorySnapshotStore()
	jobs := report.NewReportService(store, snapshots)

	f := &fixture{store: store, snapshots: snapshots}
	var publisher Publisher
	if withQueue {
		f.publisher = &fakePublisher{}
		publisher = f.publisher
	}
	ctl := NewController(l, snapshots, jobs, publisher)

	r := gin.New()
	group := r.Group("/api/intake", func(c *gin.Context) {
		if owner := c.GetHeader("X-Owner"); owner != "" {
			c.Set(middlewares.OwnerKey, owner)
		}
		c.Next()
	})
	ctl.Register(group)
	f.engine = r
	return f
}

func (f *fixture) do(method, path, owner, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner", owner)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreate_ReturnsDayTotals(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)

	w := f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"breakfast","calories":300,"carbohydrates":"40","protein":10,"fat":5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"lunch","calories":500,"carbohydrates":60,"protein":20,"fat":15,"date":"2024-07-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{
		"breakfast": {"total_calories":"300.00","total_carbs":"40.00","total_protein":"10.00","total_fat":"5.00"},
		"lunch": {"total_calories":"500.00","total_carbs":"60.00","total_protein":"20.00","total_fat":"15.00"},
		"daily": {"total_calories":"800.00","total_carbs":"100.00","total_protein":"30.00","total_fat":"20.00"},
		"date": "2024-07-01"
	}`, w.Body.String())
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)

	w := f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"brunch","calories":-1,"protein":null,"fat":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "meal_slot")
	assert.Contains(t, fields, "calories")
	assert.Contains(t, fields, "carbohydrates")
	assert.Contains(t, fields, "protein")
	assert.Contains(t, fields, "fat")

	w = f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"lunch","calories":1,"carbohydrates":1,"protein":1,"fat":1,"date":"2024-13-45"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", decode(t, w)["error"])

	w = f.do(http.MethodPost, "/api/intake/", "u1", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := f.store.Filter(context.Background(), "u1", "2024-07-01")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTotals(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)

	w := f.do(http.MethodGet, "/api/intake/", "u1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "date is required", decode(t, w)["error"])

	w = f.do(http.MethodGet, "/api/intake/?date=07-01-2024", "u1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", decode(t, w)["error"])

	w = f.do(http.MethodGet, "/api/intake/?date=2024-07-02", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body, 2)
	assert.Equal(t, "2024-07-02", body["date"])
}

func TestTotals_InternalErrorIsGeneric(t *testing.T) {
	f := newFixture(t, failingStore{ledger.NewMemoryStore()}, false)

	w := f.do(http.MethodGet, "/api/intake/?date=2024-07-01", "u1", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret-host")
}

func TestEntries(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)
	f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"snack","calories":1,"carbohydrates":1,"protein":1,"fat":1}`)
	f.do(http.MethodPost, "/api/intake/", "u2", `{"meal_slot":"snack","calories":1,"carbohydrates":1,"protein":1,"fat":1}`)

	w := f.do(http.MethodGet, "/api/intake/entries?date=2024-07-01", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].(map[string]interface{})["owner_id"])
}

func TestBulk(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)

	w := f.do(http.MethodPost, "/api/intake/bulk", "u1", `{"entries":[
		{"meal_slot":"dinner","calories":100,"carbohydrates":1,"protein":1,"fat":1},
		{"meal_slot":"dinner","calories":"oops","carbohydrates":1,"protein":1,"fat":1}
	]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "entries[1].calories")

	w = f.do(http.MethodPost, "/api/intake/bulk", "u1", `{"entries":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/intake/bulk", "u1", `{"entries":[
		{"meal_slot":"dinner","calories":100,"carbohydrates":1,"protein":1,"fat":1},
		{"meal_slot":"dinner","calories":50.5,"carbohydrates":1,"protein":1,"fat":1}
	]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	daily := decode(t, w)["daily"].(map[string]interface{})
	assert.Equal(t, "150.50", daily["total_calories"])
}

func TestPurge(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)

	w := f.do(http.MethodDelete, "/api/intake/", "u1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No intake records to delete."}`, w.Body.String())

	f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"snack","calories":1,"carbohydrates":1,"protein":1,"fat":1}`)
	w = f.do(http.MethodDelete, "/api/intake/", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
}

func TestEnqueueReport_Queue(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), true)

	w := f.do(http.MethodPost, "/api/intake/reports", "u1", `{"date":"2024-07-01","task_id":3}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, enums.ReportQueue, f.publisher.messages[0].Queue)

	var param structs.ReportQueueParam
	require.NoError(t, json.Unmarshal(f.publisher.messages[0].Body, &param))
	assert.Equal(t, structs.ReportQueueParam{Type: enums.ProcessSingle, OwnerID: "u1", Date: "2024-07-01", TaskID: 3, QueueType: enums.ReportQueue}, param)

	f.publisher.err = errors.New("channel closed")
	w = f.do(http.MethodPost, "/api/intake/reports", "u1", `{"date":"2024-07-01"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = f.do(http.MethodPost, "/api/intake/reports", "u1", `{"date":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReport_InlineJobThenFetch(t *testing.T) {
	f := newFixture(t, ledger.NewMemoryStore(), false)

	w := f.do(http.MethodGet, "/api/intake/reports?date=2024-07-01", "u1", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	f.do(http.MethodPost, "/api/intake/", "u1", `{"meal_slot":"lunch","calories":1.005,"carbohydrates":1,"protein":1,"fat":1}`)
	w = f.do(http.MethodPost, "/api/intake/reports", "u1", `{"date":"2024-07-01"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["result"])

	w = f.do(http.MethodGet, "/api/intake/reports?date=2024-07-01", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "1.01", data["daily"].(map[string]interface{})["total_calories"])

	stored, err := f.snapshots.FindReport(context.Background(), "u2", "2024-07-01")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEnqueueReport_InlineFailureIsNotOK(t *testing.T) {
	f := newFixture(t, failingStore{ledger.NewMemoryStore()}, false)

	w := f.do(http.MethodPost, "/api/intake/reports", "u1", `{"date":"2024-07-01"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-host")

	stored, err := f.snapshots.FindReport(context.Background(), "u1", "2024-07-01")
	require.NoError(t, err)
	assert.Nil(t, stored)
}
