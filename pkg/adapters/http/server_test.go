package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fitcoach/pkg/adapters/memory"
	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/generation"
	"github.com/aretw0/fitcoach/pkg/ports"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
	"github.com/aretw0/fitcoach/pkg/session"
)

func newTestServer(t *testing.T, provider ports.Provider) (*Server, http.Handler) {
	t.Helper()
	graph, err := questionnaire.DefaultGraph()
	require.NoError(t, err)

	manager := session.NewManager(memory.NewStore())
	dispatcher := session.NewDispatcher(manager, questionnaire.NewEngine(graph))
	gen, err := generation.New(manager, provider)
	require.NoError(t, err)

	srv := NewServer(dispatcher, gen, WithVersion("test"))
	return srv, srv.Handler()
}

func postEvent(t *testing.T, h http.Handler, subject string, ev domain.Event) (*httptest.ResponseRecorder, EventResponse) {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/subjects/"+subject+"/events", bytes.NewReader(body)))

	var resp EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func complete(t *testing.T, h http.Handler, subject string) {
	t.Helper()
	w, _ := postEvent(t, h, subject, domain.Event{Kind: domain.EventStart})
	require.Equal(t, http.StatusOK, w.Code)
	for _, v := range []string{"mass", "newbie", "male", "30", "80", "3", "no", "gym"} {
		w, resp := postEvent(t, h, subject, domain.Event{Kind: domain.EventAnswer, Value: v})
		require.Equal(t, http.StatusOK, w.Code, "answer %q: %s", v, w.Body.String())
		require.Equal(t, domain.OutcomeApplied, resp.Outcome)
	}
}

func TestServer_Health(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_EventFlow(t *testing.T) {
	_, h := newTestServer(t, nil)

	w, resp := postEvent(t, h, "u1", domain.Event{Kind: domain.EventStart})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OutcomeStarted, resp.Outcome)
	require.Len(t, resp.Instructions, 1)
	assert.Equal(t, domain.StateGoal, resp.Instructions[0].State)

	w, resp = postEvent(t, h, "u1", domain.Answer(domain.StateGoal, "mass"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StateExperience, resp.Session.State)
	require.NotNil(t, resp.Diff)
	assert.Equal(t, "mass", resp.Diff.Answers["goal"])

	// Invalid option
	w, resp = postEvent(t, h, "u1", domain.Answer(domain.StateExperience, "guru"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.OutcomeRejected, resp.Outcome)
	assert.Equal(t, domain.InstructValidationError, resp.Instructions[0].Kind)

	// Stale button
	w, resp = postEvent(t, h, "u1", domain.Answer(domain.StateGoal, "strength"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.OutcomeUnknown, resp.Outcome)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/subjects/u1/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var sess domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, domain.StateExperience, sess.State)
	assert.Equal(t, "mass", sess.Answers.Text(domain.FieldGoal))
}

func TestServer_NotFound(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/subjects/ghost/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"not_found"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/subjects/ghost/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Cancel(t *testing.T) {
	_, h := newTestServer(t, nil)
	postEvent(t, h, "u1", domain.Event{Kind: domain.EventStart})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/subjects/u1/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(domain.OutcomeCancelled))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/subjects/u1/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Generate(t *testing.T) {
	provider := ports.ProviderFunc(func(context.Context, string) (string, error) {
		return "# Plan", nil
	})
	_, h := newTestServer(t, provider)

	// Not ready yet
	postEvent(t, h, "u1", domain.Event{Kind: domain.EventStart})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/subjects/u1/artifacts/workout_plan", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	complete(t, h, "u1")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/subjects/u1/artifacts/workout_plan", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.InstructDeliverArtifact, resp.Instruction.Kind)
	assert.Equal(t, "# Plan", resp.Instruction.Content)
	assert.Equal(t, domain.Persisted, resp.Instruction.PersistStatus)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/subjects/u1/artifacts/workout_plan", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var a domain.Artifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "# Plan", a.Content)

	// Meal plan was never requested
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/subjects/u1/artifacts/meal_plan", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/subjects/u1/artifacts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var all []domain.Artifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	// Generate through the event endpoint too
	w, _ = postEvent(t, h, "u1", domain.Event{Kind: domain.EventGenerate, Artifact: domain.ArtifactMealPlan})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_GenerationFailure(t *testing.T) {
	provider := ports.ProviderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	_, h := newTestServer(t, provider)
	complete(t, h, "u1")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/subjects/u1/artifacts/meal_plan", nil))
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.InstructGenerationError, resp.Instruction.Kind)
	assert.Equal(t, domain.CauseProviderError, resp.Instruction.Cause)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/subjects/u1/artifacts/poem", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_InvalidBody(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/subjects/u1/events", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Graph(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/graph", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"initial":"goal"`)
	assert.Contains(t, w.Body.String(), `"location_details"`)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{&domain.ValidationError{Field: domain.FieldAge}, http.StatusUnprocessableEntity},
		{&domain.UnknownEventError{Err: domain.ErrNotReady}, http.StatusConflict},
		{&domain.PersistenceError{Op: "save", Err: errors.New("down")}, http.StatusServiceUnavailable},
		{&domain.GenerationError{Cause: domain.CauseTimeout}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := statusForError(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

func TestSubscribe_SessionDiff(t *testing.T) {
	srv, h := newTestServer(t, nil)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/subjects/u1/stream", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	require.Eventually(t, func() bool {
		return srv.Streams().Subscribers("u1") == 1
	}, time.Second, 10*time.Millisecond)

	postEvent(t, h, "u1", domain.Event{Kind: domain.EventStart})
	postEvent(t, h, "u1", domain.Answer(domain.StateGoal, "strength"))

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if strings.Contains(line, `"goal":"strength"`) {
				return
			}
		case <-timeout:
			t.Fatal("diff not streamed")
		}
	}
}
