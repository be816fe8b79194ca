package httpapi_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "keystone/internal/http"
	jwttoken "keystone/internal/jwt_token"
	"keystone/internal/onboarding/handler"
	onboardingmetrics "keystone/internal/onboarding/metrics"
	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/remote"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/service"
	"keystone/internal/onboarding/store/state"
	"keystone/internal/onboarding/wizard"
	"keystone/internal/platform/metrics"
	"keystone/pkg/testutil"
)

const signingKey = "flow-test-key"

type flowResponse struct {
	Section  string `json:"section"`
	IsDraft  bool   `json:"isDraft"`
	Congrats *struct {
		Title string `json:"title"`
	} `json:"congratsMessage"`
	State struct {
		State struct {
			UserEmail         string         `json:"userEmail"`
			FormData          map[string]any `json:"formData"`
			CompletedSections []string       `json:"completedSections"`
		} `json:"state"`
		Position        schema.Coordinate `json:"position"`
		CompletedPhases []string          `json:"completedPhases"`
	} `json:"state"`
}

// newFlowServer wires the real onboarding stack against an in-memory backend
// and a fake remote API.
func newFlowServer(t *testing.T, remoteAPI http.Handler) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	upstream := httptest.NewServer(remoteAPI)
	t.Cleanup(upstream.Close)

	catalog, err := schema.NewCatalog()
	require.NoError(t, err)
	backend := state.NewInMemory()
	registries := wizard.Registries{}
	for _, role := range models.Roles() {
		sch, err := catalog.Get(role)
		require.NoError(t, err)
		registries[role] = wizard.NewRegistry(role, sch, backend, wizard.WithRegistryLogger(logger))
	}

	reg := prometheus.NewRegistry()
	svc := service.New(registries, remote.New(upstream.URL, remote.WithLogger(logger)),
		service.WithMetrics(onboardingmetrics.New(reg)),
		service.WithLogger(logger),
	)
	return httpapi.NewRouter(httpapi.Options{
		Logger:   logger,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Identity: jwttoken.NewJWTService(signingKey, "", ""),
	}, handler.New(svc, logger))
}

func bearer(t *testing.T, req *http.Request, email string) *http.Request {
	t.Helper()
	token, err := jwttoken.NewJWTService(signingKey, "", "").GenerateIdentityToken(email, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSponsorBankingSubmissionFlow(t *testing.T) {
	var received map[string]any
	remoteAPI := http.NewServeMux()
	remoteAPI.HandleFunc("POST /onboarding/sponsor/steps/8", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.StepResponse{
			Status:         true,
			CurrentStep:    9,
			CompletedSteps: []int{8},
			IsDraft:        true,
			Data:           models.Payload{"bank_name": "First Bank of Ohio"},
		})
	})
	srv := newFlowServer(t, remoteAPI)

	testutil.Given(t, "a signed-in sponsor with draft banking answers", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, "/onboarding/sponsor/state/answers", map[string]any{
			"answers": map[string]any{
				"bank_name":           "First Bank",
				"account_holder_name": "Acme Capital LLC",
				"account_number":      "GB29NWBK60161331926819",
			},
		})
		rr := testutil.DoRequest(srv, bearer(t, req, "ada@example.com"))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	})

	testutil.When(t, "the banking section is submitted", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/onboarding/sponsor/sections/banking-information/submit", map[string]any{
			"answers": map[string]any{"routing_number": "021000021"},
		})
		rr := testutil.DoRequest(srv, bearer(t, req, "ada@example.com"))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		res := testutil.UnmarshalResponse[flowResponse](t, rr)
		testutil.Then(t, "the backend receives mapped keys", func(t *testing.T) {
			assert.Equal(t, "Acme Capital LLC", received["account_holder"])
			assert.Equal(t, "021000021", received["sort_code"])
			rep, ok := received["representative"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "ada@example.com", rep["email"])
		})
		testutil.Then(t, "the wizard reconciles with the echoed data", func(t *testing.T) {
			assert.Equal(t, "banking-information", res.Section)
			assert.True(t, res.IsDraft)
			require.NotNil(t, res.Congrats)
			assert.Equal(t, "First Bank of Ohio", res.State.State.FormData["bank_name"])
			assert.Contains(t, res.State.State.CompletedSections, "banking-information")
			assert.Equal(t, schema.Coordinate{Phase: 3, Section: 0}, res.State.Position)
		})
	})

	testutil.Then(t, "another identity sees an empty wizard", func(t *testing.T) {
		rr := testutil.DoRequest(srv, bearer(t, httptest.NewRequest(http.MethodGet, "/onboarding/sponsor/state", nil), "grace@example.com"))
		require.Equal(t, http.StatusOK, rr.Code)
		res := testutil.UnmarshalResponse[flowResponse](t, rr)
		assert.Empty(t, res.State.State.FormData)
	})
}

func TestRemoteValidationErrorsReachTheClient(t *testing.T) {
	remoteAPI := http.NewServeMux()
	remoteAPI.HandleFunc("POST /onboarding/sponsor/steps/8", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid","errors":{"routing_number":["Unknown bank"]}}`))
	})
	srv := newFlowServer(t, remoteAPI)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/onboarding/sponsor/sections/banking-information/submit", map[string]any{
		"answers": map[string]any{
			"bank_name":           "First Bank",
			"account_holder_name": "Acme Capital LLC",
			"account_number":      "GB29NWBK60161331926819",
			"routing_number":      "021000021",
		},
	})
	rr := testutil.DoRequest(srv, bearer(t, req, "ada@example.com"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_error")
	assert.Contains(t, rr.Body.String(), "Unknown bank")
}

func TestGuestCanReadSchemaButInvalidTokenIsRejected(t *testing.T) {
	srv := newFlowServer(t, http.NotFoundHandler())

	rr := testutil.DoRequest(srv, httptest.NewRequest(http.MethodGet, "/onboarding/investor/schema", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/onboarding/investor/state", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	testutil.AssertStatusAndError(t, testutil.DoRequest(srv, req), http.StatusUnauthorized, "unauthorized")
}
