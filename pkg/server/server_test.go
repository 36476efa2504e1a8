package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/ember-nexus/nexus-search/internal/mocks"
	"github.com/ember-nexus/nexus-search/pkg/logger"
	"github.com/ember-nexus/nexus-search/pkg/search"
	serverErrors "github.com/ember-nexus/nexus-search/pkg/server/errors"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	step      *mocks.MockStep
	graph     *mocks.MockReader
	datastore *mocks.MockElementDatastore
	logs      logger.Logs
}

func newTestServer(t *testing.T, config *Config) (*Server, *fixture) {
	ctrl := gomock.NewController(t)

	step := mocks.NewMockStep(ctrl)
	step.EXPECT().Identifier().Return("cypher").AnyTimes()
	step.EXPECT().IsDangerous().Return(true).AnyTimes()

	log, logs := logger.NewObserverLogger("debug")
	f := &fixture{
		step:      step,
		graph:     mocks.NewMockReader(ctrl),
		datastore: mocks.NewMockElementDatastore(ctrl),
		logs:      logs,
	}

	s := New(&Dependencies{
		Registry:  search.MustNewRegistry(step),
		Graph:     f.graph,
		Datastore: f.datastore,
		Logger:    log,
	}, config)

	return s, f
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, httptest.NewRequest(method, path, strings.NewReader(body)))
	return resp
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, f := newTestServer(t, &Config{Environment: "dev", AllowDangerousSteps: true})
		f.step.EXPECT().
			Execute(gomock.Any(), "MATCH (n) RETURN n.id AS id", map[string]any{"limit": int64(5)}).
			Return(search.NewStepResult("cypher", map[string]any{"id": "a"}, map[string]any{"query": "MATCH (n) RETURN n.id AS id"}), nil)

		resp := doRequest(s, http.MethodPost, SearchPath, `{
			"parameters": {"limit": 5},
			"steps": [{"type": "cypher", "query": "MATCH (n) RETURN n.id AS id"}]
		}`)

		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, "application/json", resp.Header().Get("Content-Type"))
		require.JSONEq(t, `{"result": {"id": "a"}}`, resp.Body.String())
	})

	t.Run("debug", func(t *testing.T) {
		s, f := newTestServer(t, &Config{Environment: "dev", AllowDangerousSteps: true})
		f.step.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(search.NewStepResult("cypher", []any{}, map[string]any{"query": "q"}), nil)

		resp := doRequest(s, http.MethodPost, SearchPath, `{"debug": true, "steps": [{"type": "cypher", "query": "q"}]}`)

		require.Equal(t, http.StatusOK, resp.Code)
		require.JSONEq(t, `{"result": [], "debug": [{"cypher": {"query": "q"}}]}`, resp.Body.String())
	})

	t.Run("malformed_body", func(t *testing.T) {
		s, _ := newTestServer(t, &Config{Environment: "dev"})

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [`)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.JSONEq(t, `{"code": "invalid_argument", "message": "Request body must be a JSON object."}`, resp.Body.String())
	})

	t.Run("body_too_large", func(t *testing.T) {
		s, _ := newTestServer(t, &Config{Environment: "dev", MaxRequestBodyBytes: 16})

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [], "parameters": {"padding": "xxxxxxxxxxxxxxxx"}}`)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.JSONEq(t, `{"code": "invalid_argument", "message": "Request body must not exceed 16 bytes."}`, resp.Body.String())
	})

	t.Run("unknown_step_type", func(t *testing.T) {
		s, _ := newTestServer(t, &Config{Environment: "dev"})

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [{"type": "sql"}]}`)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.JSONEq(t, `{"code": "invalid_argument", "message": "Endpoint expects property 'steps[0].type' to be valid type, got 'sql'."}`, resp.Body.String())
	})

	t.Run("dangerous_step_refused", func(t *testing.T) {
		s, f := newTestServer(t, &Config{Environment: "dev", AllowDangerousSteps: false})
		f.step.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [{"type": "cypher", "query": "MATCH (n) RETURN n"}]}`)

		require.Equal(t, http.StatusForbidden, resp.Code)
		require.JSONEq(t, `{"code": "permission_denied", "message": "Step 'steps[0]' of type 'cypher' is not allowed to be executed."}`, resp.Body.String())
	})

	t.Run("contract_error_in_prod", func(t *testing.T) {
		s, f := newTestServer(t, &Config{Environment: "prod", AllowDangerousSteps: true})
		f.step.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, search.NewContractError("Query did not return a path column.", map[string]any{"columns": []string{"n"}}))

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [{"type": "cypher", "query": "q"}]}`)

		require.Equal(t, http.StatusInternalServerError, resp.Code)
		require.JSONEq(t, `{"code": "internal", "message": "`+serverErrors.InternalServerErrorMsg+`"}`, resp.Body.String())

		entries := f.logs.FilterMessage("search backend broke its contract").All()
		require.Len(t, entries, 1)
		require.Equal(t, "Query did not return a path column.", entries[0].ContextMap()["message"])
	})

	t.Run("contract_error_in_dev", func(t *testing.T) {
		s, f := newTestServer(t, &Config{Environment: "dev", AllowDangerousSteps: true})
		f.step.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, search.NewContractError("Query did not return a path column.", nil))

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [{"type": "cypher", "query": "q"}]}`)

		require.Equal(t, http.StatusInternalServerError, resp.Code)
		require.JSONEq(t, `{"code": "internal", "message": "Internal server error: Query did not return a path column."}`, resp.Body.String())
	})

	t.Run("timeout", func(t *testing.T) {
		s, f := newTestServer(t, &Config{Environment: "dev", AllowDangerousSteps: true})
		f.step.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, context.DeadlineExceeded)

		resp := doRequest(s, http.MethodPost, SearchPath, `{"steps": [{"type": "cypher", "query": "q"}]}`)

		require.Equal(t, http.StatusGatewayTimeout, resp.Code)
		require.JSONEq(t, `{"code": "deadline_exceeded", "message": "Request deadline exceeded."}`, resp.Body.String())
	})

	t.Run("wrong_method", func(t *testing.T) {
		s, _ := newTestServer(t, &Config{Environment: "dev"})

		resp := doRequest(s, http.MethodGet, SearchPath, "")
		require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	})
}

func TestHealthz(t *testing.T) {
	t.Run("serving", func(t *testing.T) {
		s, f := newTestServer(t, &Config{})
		f.graph.EXPECT().VerifyConnectivity(gomock.Any()).Return(nil)
		f.datastore.EXPECT().IsReady(gomock.Any()).Return(storage.ReadinessStatus{IsReady: true}, nil)

		resp := doRequest(s, http.MethodGet, HealthzPath, "")
		require.Equal(t, http.StatusOK, resp.Code)
		require.JSONEq(t, `{"status": "SERVING"}`, resp.Body.String())
	})

	t.Run("graph_unreachable", func(t *testing.T) {
		s, f := newTestServer(t, &Config{})
		f.graph.EXPECT().VerifyConnectivity(gomock.Any()).Return(errors.New("connection refused"))
		f.datastore.EXPECT().IsReady(gomock.Any()).Times(0)

		resp := doRequest(s, http.MethodGet, HealthzPath, "")
		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
		require.JSONEq(t, `{"status": "NOT_SERVING"}`, resp.Body.String())
	})

	t.Run("datastore_needs_migrations", func(t *testing.T) {
		s, f := newTestServer(t, &Config{})
		f.graph.EXPECT().VerifyConnectivity(gomock.Any()).Return(nil)
		f.datastore.EXPECT().IsReady(gomock.Any()).Return(storage.ReadinessStatus{Message: "datastore requires migrations"}, nil)

		ready, err := s.IsReady(context.Background())
		require.NoError(t, err)
		require.False(t, ready)
		require.Equal(t, 1, f.logs.FilterMessage("datastore requires migrations").Len())
	})

	t.Run("datastore_error", func(t *testing.T) {
		s, f := newTestServer(t, &Config{})
		f.graph.EXPECT().VerifyConnectivity(gomock.Any()).Return(nil)
		f.datastore.EXPECT().IsReady(gomock.Any()).Return(storage.ReadinessStatus{}, errors.New("closed"))

		ready, err := s.IsReady(context.Background())
		require.EqualError(t, err, "closed")
		require.False(t, ready)
	})
}
