package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repplan/internal/models"
)

// Client implements API by calling the planning backend's REST API.
// Used when the engine runs apart from the database (remote mode).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: Client satisfies API.
var _ API = (*Client)(nil)

// NewClient creates a Client targeting the given base URL. apiKey may be empty.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a request with an optional JSON body and decodes a JSON response into out.
// out may be nil for endpoints that only acknowledge.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func userPath(userID int, rest string) string {
	return "/api/v1/users/" + strconv.Itoa(userID) + rest
}

func sessionPath(id uuid.UUID, rest string) string {
	return "/api/v1/planned-sessions/" + id.String() + rest
}

func (c *Client) ExerciseCatalog(ctx context.Context, userID int) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/exercises"), nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) WorkoutHistory(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var workouts []models.WorkoutRecord
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/workouts"), params, nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *Client) UserProfile(ctx context.Context, userID int) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/profile"), nil, nil, &profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}

func (c *Client) WeeklyPlanning(ctx context.Context, userID int, weekStart time.Time) (models.Week, error) {
	params := url.Values{}
	params.Set("week_start", weekStart.Format(models.DateFormat))

	var week models.Week
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/planning"), params, nil, &week); err != nil {
		return models.Week{}, err
	}
	return week, nil
}

func (c *Client) MoveSession(ctx context.Context, sessionID uuid.UUID, newDate time.Time, force bool) (models.MoveResponse, error) {
	req := models.MoveRequest{NewDate: newDate.Format(models.DateFormat), ForceMove: force}

	var resp models.MoveResponse
	if err := c.do(ctx, http.MethodPut, sessionPath(sessionID, "/move"), nil, req, &resp); err != nil {
		return models.MoveResponse{}, err
	}
	return resp, nil
}

func (c *Client) UpdateSession(ctx context.Context, sessionID uuid.UUID, u models.SessionUpdate) error {
	return c.do(ctx, http.MethodPut, sessionPath(sessionID, ""), nil, u, nil)
}

func (c *Client) CreateSession(ctx context.Context, userID int, s models.NewSession) (models.PlannedSession, error) {
	var created models.PlannedSession
	if err := c.do(ctx, http.MethodPost, userPath(userID, "/planned-sessions"), nil, s, &created); err != nil {
		return models.PlannedSession{}, err
	}
	return created, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, ""), nil, nil, nil)
}

func (c *Client) ExerciseAlternatives(ctx context.Context, exerciseID int, muscleGroup string, userID int) ([]models.Alternative, error) {
	params := url.Values{}
	if muscleGroup != "" {
		params.Set("muscle_group", muscleGroup)
	}
	params.Set("user_id", strconv.Itoa(userID))

	var alts []models.Alternative
	path := "/api/v1/exercises/" + strconv.Itoa(exerciseID) + "/alternatives"
	if err := c.do(ctx, http.MethodGet, path, params, nil, &alts); err != nil {
		return nil, err
	}
	return alts, nil
}
