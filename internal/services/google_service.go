package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/franciscosanchezn/insight-hub-api/internal/config"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	switch config.GetEnvWithDefault("APP_ENV", "development") {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// calendarWindow is how far ahead calendar events are listed
const calendarWindow = 30 * 24 * time.Hour

// GoogleAPIError reports a non-200 answer from a proxied Google API
type GoogleAPIError struct {
	StatusCode int
	Body       string
}

func (e *GoogleAPIError) Error() string {
	return fmt.Sprintf("google api responded with status %d", e.StatusCode)
}

// GoogleService reads Classroom and Calendar data on behalf of a signed in account
type GoogleService interface {
	// ListCourses returns the ACTIVE courses the user is enrolled in, or every course when none is active
	ListCourses(ctx context.Context, accessToken string) ([]map[string]interface{}, error)
	// ListCoursework returns the coursework of a course
	ListCoursework(ctx context.Context, accessToken, courseID string) ([]map[string]interface{}, error)
	// ListCalendarEvents returns upcoming events from the primary calendar
	ListCalendarEvents(ctx context.Context, accessToken string, maxResults int) ([]map[string]interface{}, error)
}

type googleService struct {
	classroomBaseURL string
	calendarBaseURL  string
	httpClient       *http.Client
	now              func() time.Time
}

// NewGoogleService creates a GoogleService. A nil httpClient uses a 30 second timeout client.
func NewGoogleService(classroomBaseURL, calendarBaseURL string, httpClient *http.Client) GoogleService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &googleService{
		classroomBaseURL: classroomBaseURL,
		calendarBaseURL:  calendarBaseURL,
		httpClient:       httpClient,
		now:              time.Now,
	}
}

func (s *googleService) ListCourses(ctx context.Context, accessToken string) ([]map[string]interface{}, error) {
	var page struct {
		Courses []map[string]interface{} `json:"courses"`
	}
	active := url.Values{"studentId": {"me"}, "courseStates": {"ACTIVE"}}
	if err := s.get(ctx, accessToken, s.classroomBaseURL+"/courses", active, &page); err != nil {
		return nil, err
	}
	if len(page.Courses) > 0 {
		return page.Courses, nil
	}

	log.Debug("No ACTIVE courses, fetching courses in every state")
	if err := s.get(ctx, accessToken, s.classroomBaseURL+"/courses", url.Values{"studentId": {"me"}}, &page); err != nil {
		return nil, err
	}
	return page.Courses, nil
}

func (s *googleService) ListCoursework(ctx context.Context, accessToken, courseID string) ([]map[string]interface{}, error) {
	var page struct {
		CourseWork []map[string]interface{} `json:"courseWork"`
	}
	endpoint := s.classroomBaseURL + "/courses/" + url.PathEscape(courseID) + "/courseWork"
	if err := s.get(ctx, accessToken, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return page.CourseWork, nil
}

func (s *googleService) ListCalendarEvents(ctx context.Context, accessToken string, maxResults int) ([]map[string]interface{}, error) {
	var page struct {
		Items []map[string]interface{} `json:"items"`
	}
	now := s.now().UTC()
	params := url.Values{
		"timeMin":      {now.Format(time.RFC3339)},
		"timeMax":      {now.Add(calendarWindow).Format(time.RFC3339)},
		"maxResults":   {fmt.Sprint(maxResults)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}
	if err := s.get(ctx, accessToken, s.calendarBaseURL+"/calendars/primary/events", params, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// get performs an authenticated GET and decodes the JSON body into out
func (s *googleService) get(ctx context.Context, accessToken, endpoint string, params url.Values, out interface{}) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build google api request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("google api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"endpoint": req.URL.Path,
		}).Warn("Google API returned an error response")
		return &GoogleAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode google api response: %w", err)
	}
	return nil
}
