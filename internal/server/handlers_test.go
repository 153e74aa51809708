package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/opsboard/internal/events"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/chrisdamba/opsboard/internal/predictor"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `{
  "bias": -3.0,
  "weights": {
    "order_item_count": 0.8,
    "order_purchase_hour": 0.05,
    "payment_type_credit_card": -0.3,
    "payment_type_debit_card": 0.1,
    "payment_type_voucher": 0.6
  },
  "threshold": 0.5
}`

const testFeatures = `[
  "order_item_count",
  "order_purchase_hour",
  "payment_type_credit_card",
  "payment_type_debit_card",
  "payment_type_voucher"
]`

// stubSource serves fixed tables, or an error to exercise failed refreshes.
type stubSource struct {
	orders   []models.Order
	payments []models.Payment
	err      error
}

func (s *stubSource) Load(ctx context.Context) ([]models.Order, []models.Payment, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.orders, s.payments, nil
}

func fixtureOrders() []models.Order {
	purchase := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	onTime := purchase.AddDate(0, 0, 4)
	late := purchase.AddDate(0, 0, 12)
	return []models.Order{
		{ID: "A", PurchasedAt: purchase, DeliveredAt: &onTime},
		{ID: "A", PurchasedAt: purchase, DeliveredAt: &onTime}, // second line item
		{ID: "B", PurchasedAt: purchase, DeliveredAt: &late},
		{ID: "C", PurchasedAt: purchase}, // never delivered
	}
}

func fixturePayments() []models.Payment {
	return []models.Payment{
		{OrderID: "A", Type: models.PaymentTypeCreditCard, Value: 150.4},
		{OrderID: "B", Type: models.PaymentTypeVoucher, Value: 49.6},
	}
}

func newTestServer(t *testing.T, source *stubSource) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	featuresPath := filepath.Join(dir, "features.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(testModel), 0o644))
	require.NoError(t, os.WriteFile(featuresPath, []byte(testFeatures), 0o644))

	pred, err := predictor.Load(modelPath, featuresPath)
	require.NoError(t, err)

	cfg := &models.Config{SLADays: models.DefaultSLADays}
	srv := New(cfg, source, pred, events.NoopPublisher{})
	require.NoError(t, srv.Refresh(context.Background()))
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, req)
	return recorder
}

func TestHandleKPIs(t *testing.T) {
	srv := newTestServer(t, &stubSource{orders: fixtureOrders(), payments: fixturePayments()})

	resp := doRequest(srv, http.MethodGet, "/api/v1/kpis", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body kpiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Equal(t, 3, body.TotalOrders)
	assert.Equal(t, 200.0, body.TotalRevenue) // 150.4+49.6 rounded to whole units
	require.NotNil(t, body.AvgDeliveryDays)
	assert.InDelta(t, 6.7, *body.AvgDeliveryDays, 1e-9) // (4+4+12)/3 to one decimal
	require.NotNil(t, body.LatePercentage)
	assert.InDelta(t, 33.3, *body.LatePercentage, 1e-9)
	assert.Equal(t, "ok", body.Status)
}

func TestHandleKPIs_NoDeliveredOrders(t *testing.T) {
	purchase := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	srv := newTestServer(t, &stubSource{
		orders:   []models.Order{{ID: "A", PurchasedAt: purchase}},
		payments: fixturePayments(),
	})

	resp := doRequest(srv, http.MethodGet, "/api/v1/kpis", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body kpiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	// no-data state: nulls plus a status flag, never zeroes
	assert.Nil(t, body.AvgDeliveryDays)
	assert.Nil(t, body.LatePercentage)
	assert.Equal(t, "no data", body.Status)
	assert.Equal(t, 1, body.TotalOrders)
}

func TestChartEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubSource{orders: fixtureOrders(), payments: fixturePayments()})

	resp := doRequest(srv, http.MethodGet, "/api/v1/charts/monthly-trend", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var trend []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &trend))
	require.Len(t, trend, 1)
	assert.Equal(t, "2024-01", trend[0]["month"])
	assert.Equal(t, 2.0, trend[0]["orders"])

	resp = doRequest(srv, http.MethodGet, "/api/v1/charts/revenue-by-payment-type", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var revenue map[string]float64
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &revenue))
	assert.Equal(t, 150.4, revenue[models.PaymentTypeCreditCard])
	assert.Equal(t, 49.6, revenue[models.PaymentTypeVoucher])

	resp = doRequest(srv, http.MethodGet, "/api/v1/charts/sla-breakdown", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var breakdown []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &breakdown))
	require.Len(t, breakdown, 2)
	assert.Equal(t, "On Time", breakdown[0]["status"])
	assert.Equal(t, 2.0, breakdown[0]["count"]) // the duplicated line item counts per row, as the source rows do
	assert.Equal(t, "Late", breakdown[1]["status"])
	assert.Equal(t, 1.0, breakdown[1]["count"])
}

func TestHandlePredict_FormOnlyRequestFailsTheFeatureContract(t *testing.T) {
	srv := newTestServer(t, &stubSource{orders: fixtureOrders(), payments: fixturePayments()})

	// the form's two fields match none of the model's five expected
	// features, so the request must fail loudly, not score a default row
	resp := doRequest(srv, http.MethodPost, "/api/v1/predict",
		`{"payment_value": 500, "delivery_time_days": 5}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "missing expected feature")
	assert.Contains(t, resp.Body.String(), "order_item_count")
}

func TestHandlePredict_FullFeatureSet(t *testing.T) {
	srv := newTestServer(t, &stubSource{orders: fixtureOrders(), payments: fixturePayments()})

	resp := doRequest(srv, http.MethodPost, "/api/v1/predict", `{
		"payment_value": 500,
		"delivery_time_days": 5,
		"features": {
			"order_item_count": 6,
			"order_purchase_hour": 22,
			"payment_type_credit_card": 0,
			"payment_type_debit_card": 0,
			"payment_type_voucher": 1
		}
	}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var body predictResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Contains(t, []int{0, 1}, body.Prediction)
	assert.Equal(t, 1, body.Prediction)
	assert.Equal(t, "High Risk: order likely to be delayed", body.Status)
}

func TestHandlePredict_ValidatesBounds(t *testing.T) {
	srv := newTestServer(t, &stubSource{orders: fixtureOrders(), payments: fixturePayments()})

	resp := doRequest(srv, http.MethodPost, "/api/v1/predict", `{"payment_value": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doRequest(srv, http.MethodPost, "/api/v1/predict", `{"delivery_time_days": -3}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doRequest(srv, http.MethodPost, "/api/v1/predict", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	source := &stubSource{orders: fixtureOrders(), payments: fixturePayments()}
	srv := newTestServer(t, source)

	source.err = errors.New("orders file vanished")
	resp := doRequest(srv, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusInternalServerError, resp.Code)

	// the previously computed snapshot still serves
	resp = doRequest(srv, http.MethodGet, "/api/v1/kpis", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var body kpiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 3, body.TotalOrders)
}
