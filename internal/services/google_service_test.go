package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeGoogle(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *googleService) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewGoogleService(server.URL+"/classroom", server.URL+"/calendar", server.Client()).(*googleService)
	return server, svc
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func TestListCoursesPrefersActive(t *testing.T) {
	_, svc := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/classroom/courses", r.URL.Path)
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("courseStates"))
		writeJSON(w, map[string]interface{}{"courses": []map[string]interface{}{{"id": "c1", "name": "Math"}}})
	})

	courses, err := svc.ListCourses(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Math", courses[0]["name"])
}

func TestListCoursesFallsBackToAllStates(t *testing.T) {
	var calls int
	_, svc := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("courseStates") == "ACTIVE" {
			writeJSON(w, map[string]interface{}{})
			return
		}
		writeJSON(w, map[string]interface{}{"courses": []map[string]interface{}{{"id": "c2", "courseState": "ARCHIVED"}}})
	})

	courses, err := svc.ListCourses(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, courses, 1)
	assert.Equal(t, "c2", courses[0]["id"])
}

func TestListCoursework(t *testing.T) {
	_, svc := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classroom/courses/c-1/courseWork", r.URL.Path)
		writeJSON(w, map[string]interface{}{"courseWork": []map[string]interface{}{{"title": "Homework 1"}}})
	})

	work, err := svc.ListCoursework(context.Background(), "access-1", "c-1")
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "Homework 1", work[0]["title"])
}

func TestListCalendarEvents(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	_, svc := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "/calendar/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "2024-05-01T09:00:00Z", query.Get("timeMin"))
		assert.Equal(t, "2024-05-31T09:00:00Z", query.Get("timeMax"))
		assert.Equal(t, "5", query.Get("maxResults"))
		assert.Equal(t, "true", query.Get("singleEvents"))
		assert.Equal(t, "startTime", query.Get("orderBy"))
		writeJSON(w, map[string]interface{}{"items": []map[string]interface{}{{"summary": "Lecture"}}})
	})
	svc.now = func() time.Time { return now }

	events, err := svc.ListCalendarEvents(context.Background(), "access-1", 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Lecture", events[0]["summary"])
}

func TestGoogleAPIErrorResponse(t *testing.T) {
	_, svc := newFakeGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403}}`))
	})

	_, err := svc.ListCoursework(context.Background(), "access-1", "c-1")
	require.Error(t, err)
	var apiErr *GoogleAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "403")
}

func TestLogLevelFollowsAppEnv(t *testing.T) {
	want := map[string]logrus.Level{
		"":            logrus.DebugLevel,
		"development": logrus.DebugLevel,
		"production":  logrus.ErrorLevel,
		"staging":     logrus.InfoLevel,
	}[os.Getenv("APP_ENV")]
	if want == 0 && os.Getenv("APP_ENV") != "" {
		want = logrus.InfoLevel
	}
	assert.Equal(t, want, log.GetLevel())
}
