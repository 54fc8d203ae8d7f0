package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/websocket"
)

// Client talks to a running `wifiinfo serve`.
type Client struct {
	r       *resty.Client
	baseURL string
	token   string
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/json")
	client.SetContentLength(true)

	return &Client{r: client, baseURL: baseURL}
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	var e errorEnvelope
	if json.Unmarshal(resp.Body(), &e) == nil && e.Error.Message != "" {
		return fmt.Errorf("%s %s: %d %s", resp.Request.Method, resp.Request.URL, e.Error.Code, e.Error.Message)
	}
	return fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL, resp.Status())
}

func (c *Client) Authenticate(password string) error {
	var out struct {
		Token string `json:"token"`
	}
	resp, err := c.r.R().
		SetBody(AuthenticateRequestBody{Password: password}).
		SetResult(&out).
		Post("/authenticate")
	if err := check(resp, err); err != nil {
		return err
	}
	if out.Token == "" {
		return errors.New("server returned no session token")
	}

	c.token = out.Token
	c.r.SetAuthToken(out.Token)
	return nil
}

func (c *Client) Logout() error {
	resp, err := c.r.R().Post("/logout")
	return check(resp, err)
}

// Scan starts a scan job and returns its ID.
func (c *Client) Scan() (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	resp, err := c.r.R().SetResult(&out).Post("/scan")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Results() ([]wifiinfo.ScanRecord, error) {
	var out ScanResponse
	resp, err := c.r.R().SetResult(&out).Get("/scan")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Detail(bssid string) (ScanDetailResponse, error) {
	var out ScanDetailResponse
	resp, err := c.r.R().
		SetPathParam("bssid", bssid).
		SetResult(&out).
		Get("/scan/{bssid}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return out, fmt.Errorf("%w: %s", wifiinfo.ErrNotFound, bssid)
	}
	if err := check(resp, err); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) Permissions() (PermissionsResponse, error) {
	var out PermissionsResponse
	resp, err := c.r.R().SetResult(&out).Get("/permissions")
	if err := check(resp, err); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) SetPermission(p wifiinfo.Permission, state wifiinfo.PermissionState) (PermissionsResponse, error) {
	var out PermissionsResponse
	resp, err := c.r.R().
		SetPathParam("name", string(p)).
		SetBody(SetPermissionRequestBody{State: state}).
		SetResult(&out).
		Put("/permissions/{name}")
	if err := check(resp, err); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) ResetPermission(p wifiinfo.Permission) (PermissionsResponse, error) {
	var out PermissionsResponse
	resp, err := c.r.R().
		SetPathParam("name", string(p)).
		SetResult(&out).
		Delete("/permissions/{name}")
	if err := check(resp, err); err != nil {
		return out, err
	}
	return out, nil
}

// Event is a Change as received over the websocket.
type Event struct {
	ID     string          `json:"id"`
	Error  string          `json:"error"`
	Type   string          `json:"type"`
	Update json.RawMessage `json:"update"`
}

// ScanUpdate decodes the update of a "scan" event.
func (e Event) ScanUpdate() (wifiinfo.ScanUpdate, error) {
	var u wifiinfo.ScanUpdate
	if e.Type != "scan" {
		return u, fmt.Errorf("event %s is not a scan update", e.Type)
	}
	err := json.Unmarshal(e.Update, &u)
	return u, err
}

type Subscription struct {
	ws *websocket.Conn
}

// Subscribe opens the scan websocket. The first event is always
// the current result set.
func (c *Client) Subscribe() (*Subscription, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	origin := u.String()

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/scan"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	ws, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s%s: %w", u.Host, u.Path, err)
	}
	return &Subscription{ws: ws}, nil
}

func (s *Subscription) Next() (Event, error) {
	var e Event
	err := websocket.JSON.Receive(s.ws, &e)
	return e, err
}

// SetDeadline bounds how long Next may wait.
func (s *Subscription) SetDeadline(t time.Time) error {
	return s.ws.SetReadDeadline(t)
}

func (s *Subscription) Close() error {
	return s.ws.Close()
}
