package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"traffix/pkg/engine/assignment"
	"traffix/pkg/network"
	"traffix/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	net, err := network.New(2, 3, 3, 0, 0)
	assert.Nil(t, err)
	_, err = net.AddLink(1, 3, 100, 0, 10, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	_, err = net.AddLink(3, 2, 100, 0, 5, 0.15, 4, 60, 0, "1")
	assert.Nil(t, err)
	assert.Nil(t, net.AddODPair(1, 2, 50))

	svc := service.NewAssignmentService(assignment.NewEngine(net), net)
	m := NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(PromHTTPMiddleware(m))
	AssignmentRouter(r, svc, m)
	return r
}

func doJSON(t *testing.T, r *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		assert.Nil(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestNetworkStatsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/assignment/network", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp NetworkStatsResponse
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.NumZones)
	assert.Equal(t, 3, resp.NumNodes)
	assert.Equal(t, 2, resp.NumLinks)
	assert.Equal(t, 50.0, resp.TotalDemand)
}

func TestShortestPathEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/assignment/shortest-path",
		map[string]any{"origin": 1})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ShortestPathResponse
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int32(1), resp.Origin)
	assert.Equal(t, 3, len(resp.Labels))
	assert.NotNil(t, resp.Labels[1].Potential) // node 2
	assert.Equal(t, 15.0, *resp.Labels[1].Potential)
	assert.Equal(t, int32(3), *resp.Labels[1].Predecessor)
}

func TestShortestPathEndpointBadOrigin(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/assignment/shortest-path",
		map[string]any{"origin": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/assignment/shortest-path",
		map[string]any{"origin": 99})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllOrNothingEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/assignment/all-or-nothing", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp FlowsResponse
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, len(resp.Links))
	assert.Equal(t, 50.0, resp.Links[0].Flow)
}

func TestEquilibriumEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/assignment/equilibrium",
		map[string]any{"tolerance": 1e-2, "max_iterations": 100})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp EquilibriumResponse
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Converged)
	assert.Equal(t, 2, len(resp.Links))
	assert.Equal(t, 50.0, resp.Links[0].Flow)
	assert.InDelta(t, 10*(1+0.15*0.0625), resp.Links[0].Cost, 1e-9)
}
