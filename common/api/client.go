package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrServerBadRequest       = errors.New("server responded with bad request")
	ErrServerUnauthorized     = errors.New("server refused the session")
	ErrServerForbidden        = errors.New("server denied access")
	ErrServerNotFound         = errors.New("server could not find the resource")
	ErrServerError            = errors.New("server responded server error")
	ErrServerUnexpectedStatus = errors.New("server responded with unexpected status")
	ErrNoSession              = errors.New("no session, login first")
)

type Client interface {
	Register(ctx context.Context, request RegisterRequest) (RegisterResponse, error)
	VerifyOtp(ctx context.Context, request VerifyOtpRequest) (Session, error)
	Login(ctx context.Context, request LoginRequest) (Session, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (UserTransport, error)

	ListChildren(ctx context.Context) ([]ChildTransport, error)
	GetChild(ctx context.Context, childId string) (ChildTransport, error)
	AddChild(ctx context.Context, child ChildRequest) (ChildTransport, error)

	RecordActivity(ctx context.Context, activity ActivityRequest) (ActivityTransport, error)
	ListActivities(ctx context.Context, childId string, limit int) ([]ActivityTransport, error)

	Report(ctx context.Context, childId string) (ReportTransport, error)
	DownloadReport(ctx context.Context, childId string) ([]byte, error)
	GenerateInsight(ctx context.Context, request InsightRequest) (InsightTransport, error)

	ListAssessments(ctx context.Context) ([]AssessmentTransport, error)
	GetAssessment(ctx context.Context, level string) (AssessmentTransport, error)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type DefaultClient struct {
	baseUrl    url.URL
	httpClient *http.Client
	sessions   SessionStore
}

// NewDefaultClient builds a client for the api at baseUrl, e.g. https://api.autismart.app. A nil store keeps the
// session in memory.
func NewDefaultClient(baseUrl string, sessions SessionStore, httpClient *http.Client) (*DefaultClient, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base url")
	}
	if sessions == nil {
		sessions = &MemorySessionStore{}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DefaultClient{
		baseUrl:    *parsed,
		httpClient: httpClient,
		sessions:   sessions,
	}, nil
}

func (c *DefaultClient) Register(ctx context.Context, request RegisterRequest) (RegisterResponse, error) {
	response := RegisterResponse{}
	err := c.call(ctx, http.MethodPost, "/api/auth/register", nil, request, &response, false)
	return response, err
}

func (c *DefaultClient) VerifyOtp(ctx context.Context, request VerifyOtpRequest) (Session, error) {
	return c.openSession(ctx, "/api/auth/verify-otp", request)
}

func (c *DefaultClient) Login(ctx context.Context, request LoginRequest) (Session, error) {
	return c.openSession(ctx, "/api/auth/login", request)
}

func (c *DefaultClient) Logout(ctx context.Context) error {
	return c.sessions.Clear()
}

func (c *DefaultClient) Profile(ctx context.Context) (UserTransport, error) {
	user := UserTransport{}
	err := c.call(ctx, http.MethodGet, "/api/auth/profile", nil, nil, &user, true)
	return user, err
}

func (c *DefaultClient) ListChildren(ctx context.Context) ([]ChildTransport, error) {
	children := []ChildTransport{}
	err := c.call(ctx, http.MethodGet, "/api/caregiver/children", nil, nil, &children, true)
	return children, err
}

func (c *DefaultClient) GetChild(ctx context.Context, childId string) (ChildTransport, error) {
	child := ChildTransport{}
	err := c.call(ctx, http.MethodGet, "/api/caregiver/children/"+url.PathEscape(childId), nil, nil, &child, true)
	return child, err
}

func (c *DefaultClient) AddChild(ctx context.Context, request ChildRequest) (ChildTransport, error) {
	child := ChildTransport{}
	err := c.call(ctx, http.MethodPost, "/api/caregiver/children", nil, request, &child, true)
	return child, err
}

func (c *DefaultClient) RecordActivity(ctx context.Context, request ActivityRequest) (ActivityTransport, error) {
	activity := ActivityTransport{}
	err := c.call(ctx, http.MethodPost, "/api/caregiver/children/"+url.PathEscape(request.ChildId)+"/activities", nil, request, &activity, true)
	return activity, err
}

func (c *DefaultClient) ListActivities(ctx context.Context, childId string, limit int) ([]ActivityTransport, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	activities := []ActivityTransport{}
	err := c.call(ctx, http.MethodGet, "/api/caregiver/children/"+url.PathEscape(childId)+"/activities", query, nil, &activities, true)
	return activities, err
}

func (c *DefaultClient) Report(ctx context.Context, childId string) (ReportTransport, error) {
	report := ReportTransport{}
	err := c.call(ctx, http.MethodGet, "/api/caregiver/children/"+url.PathEscape(childId)+"/report", nil, nil, &report, true)
	return report, err
}

func (c *DefaultClient) DownloadReport(ctx context.Context, childId string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/caregiver/children/"+url.PathEscape(childId)+"/report/download", nil, nil, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.performRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read report")
	}
	return b, nil
}

func (c *DefaultClient) GenerateInsight(ctx context.Context, request InsightRequest) (InsightTransport, error) {
	insight := InsightTransport{}
	err := c.call(ctx, http.MethodPost, "/api/ai/generate-insight/"+url.PathEscape(request.ChildId), nil, request, &insight, true)
	return insight, err
}

func (c *DefaultClient) ListAssessments(ctx context.Context) ([]AssessmentTransport, error) {
	assessments := []AssessmentTransport{}
	err := c.call(ctx, http.MethodGet, "/api/assessments", nil, nil, &assessments, true)
	return assessments, err
}

func (c *DefaultClient) GetAssessment(ctx context.Context, level string) (AssessmentTransport, error) {
	assessment := AssessmentTransport{}
	err := c.call(ctx, http.MethodGet, "/api/assessments/"+url.PathEscape(level), nil, nil, &assessment, true)
	return assessment, err
}

func (c *DefaultClient) openSession(ctx context.Context, path string, request interface{}) (Session, error) {
	session := Session{}
	if err := c.call(ctx, http.MethodPost, path, nil, request, &session, false); err != nil {
		return Session{}, err
	}
	if err := c.sessions.Save(session); err != nil {
		return Session{}, errors.Wrap(err, "failed to save session")
	}
	return session, nil
}

// call sends body as json and decodes the data of the response envelope in out.
func (c *DefaultClient) call(ctx context.Context, method, path string, query url.Values, body, out interface{}, authenticated bool) error {
	req, err := c.newRequest(ctx, method, path, query, body, authenticated)
	if err != nil {
		return err
	}

	resp, err := c.performRequest(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	env := envelope{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrap(err, "failed to decode json response")
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "failed to decode json response")
	}
	return nil
}

func (c *DefaultClient) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}, authenticated bool) (*http.Request, error) {
	requestUrl := c.baseUrl
	requestUrl.Path = requestUrl.Path + path
	requestUrl.RawQuery = query.Encode()

	var requestBody []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to json encode the request")
		}
		requestBody = b
	}

	req, err := http.NewRequest(method, requestUrl.String(), bytes.NewReader(requestBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		session, err := c.sessions.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load session")
		}
		if session.IsZero() {
			return nil, ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}
	return req.WithContext(ctx), nil
}

// performRequest returns the response when its status is 2xx. A 401 also drops the stored session.
func (c *DefaultClient) performRequest(r *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute the http request")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusUnauthorized:
		err = ErrServerUnauthorized
		c.sessions.Clear()
	case resp.StatusCode == http.StatusForbidden:
		err = ErrServerForbidden
	case resp.StatusCode == http.StatusNotFound:
		err = ErrServerNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		err = ErrServerBadRequest
	case resp.StatusCode >= 500:
		err = ErrServerError
	default:
		err = ErrServerUnexpectedStatus
	}
	defer resp.Body.Close()

	b, _ := ioutil.ReadAll(resp.Body)
	env := envelope{}
	if json.Unmarshal(b, &env) == nil && env.Error != "" {
		return nil, errors.Wrapf(err, "server responded with status code %v: %s", resp.StatusCode, env.Error)
	}
	return nil, errors.Wrapf(err, "server responded with status code %v, body: %s", resp.StatusCode, b)
}
