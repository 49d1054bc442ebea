package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/grid"
	"github.com/pefman/tactics-duel/internal/journal"
	"github.com/pefman/tactics-duel/internal/models"
	"github.com/pefman/tactics-duel/internal/session"
	"github.com/pefman/tactics-duel/internal/stats"
)

var httpClient = &http.Client{Timeout: 8 * time.Second}

// Config holds API configuration
type Config struct {
	BaseURL string
}

// Client talks to a battle server.
type Client struct {
	config Config
}

func NewClient(baseURL string) *Client {
	return &Client{
		config: Config{BaseURL: baseURL},
	}
}

// Error is a non-2xx reply.
type Error struct {
	Status int
	Body   models.ErrorResponse
}

func (e *Error) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("api status %d: %s (%s)", e.Status, e.Body.Error, e.Body.Code)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Body.Error)
}

// Outcome is the answer to an action or a dodge: a result, or the dodge the
// action now waits for.
type Outcome struct {
	Result   *game.Result
	Awaiting *models.AwaitingResponse
}

// StatsReply is the body of /stats/{player}.
type StatsReply struct {
	Stats       stats.PlayerStats `json:"stats"`
	MaxHitToday *stats.Hit        `json:"max_hit_today,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	base := strings.TrimRight(c.config.BaseURL, "/")
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr.Body)
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) apiGet(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func battlePath(id string, rest ...string) string {
	return "/battles/" + url.PathEscape(id) + strings.Join(rest, "")
}

// Version returns the server build metadata.
func (c *Client) Version(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.apiGet(ctx, "/version", &out)
	return out, err
}

// CreateBattle starts a battle from the named scenario ("" for the default).
func (c *Client) CreateBattle(ctx context.Context, req models.CreateBattleRequest) (session.View, error) {
	var out session.View
	err := c.call(ctx, http.MethodPost, "/battles", req, &out)
	return out, err
}

func (c *Client) Battles(ctx context.Context) ([]string, error) {
	var out struct {
		Battles []string `json:"battles"`
	}
	err := c.apiGet(ctx, "/battles", &out)
	return out.Battles, err
}

func (c *Client) Battle(ctx context.Context, id string) (session.View, error) {
	var out session.View
	err := c.apiGet(ctx, battlePath(id), &out)
	return out, err
}

func (c *Client) BeginTurn(ctx context.Context, id, unitID string) (game.TurnStart, error) {
	var out game.TurnStart
	err := c.call(ctx, http.MethodPost, battlePath(id, "/turns"), models.TurnRequest{UnitID: unitID}, &out)
	return out, err
}

// Act submits an action.
func (c *Client) Act(ctx context.Context, id string, req models.ActionRequest) (Outcome, error) {
	return c.outcome(ctx, battlePath(id, "/actions"), req)
}

// Dodge answers a pending dodge.
func (c *Client) Dodge(ctx context.Context, id, unitID string, dodged bool) (Outcome, error) {
	return c.outcome(ctx, battlePath(id, "/dodges"), models.DodgeRequest{UnitID: unitID, Dodged: dodged})
}

func (c *Client) outcome(ctx context.Context, path string, in any) (Outcome, error) {
	resp, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusAccepted {
		var wait models.AwaitingResponse
		if err := json.NewDecoder(resp.Body).Decode(&wait); err != nil {
			return Outcome{}, err
		}
		return Outcome{Awaiting: &wait}, nil
	}
	var res game.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: &res}, nil
}

// Preview asks for the selectable cells of an ability and, with hovered, the
// cells a confirmation there would affect.
func (c *Client) Preview(ctx context.Context, id, casterID, ability string, hovered *grid.Cell) (game.Preview, error) {
	q := url.Values{"caster": {casterID}, "ability": {ability}}
	if hovered != nil {
		q.Set("x", strconv.Itoa(hovered.X))
		q.Set("y", strconv.Itoa(hovered.Y))
	}
	var out game.Preview
	err := c.apiGet(ctx, battlePath(id, "/preview?", q.Encode()), &out)
	return out, err
}

func (c *Client) Journal(ctx context.Context, id string) ([]journal.Entry, error) {
	var out struct {
		Entries []journal.Entry `json:"entries"`
	}
	err := c.apiGet(ctx, battlePath(id, "/journal"), &out)
	return out.Entries, err
}

func (c *Client) Stats(ctx context.Context, player string) (StatsReply, error) {
	var out StatsReply
	err := c.apiGet(ctx, "/stats/"+url.PathEscape(player), &out)
	return out, err
}
