package temapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/earth-module/tem-dashboard/internal/model"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 256

	// DeleteValue is posted in place of a key to remove it.
	DeleteValue = "DELETE"
)

// Key providers accepted by POST /api/keys.
const (
	ProviderOpenWeather = "openweather"
	ProviderNasa        = "nasa"
)

// Client talks to the module's REST API.
type Client struct {
	httpClient *http.Client
	base       string
}

func NewClient(endpoint model.Endpoint) *Client {
	return NewClientWithHTTPClient(endpoint, &http.Client{Timeout: defaultTimeout})
}

func NewClientWithHTTPClient(endpoint model.Endpoint, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	client := *httpClient
	if client.Timeout == 0 {
		client.Timeout = defaultTimeout
	}
	if endpoint.SSL {
		var transport *http.Transport
		if existing, ok := client.Transport.(*http.Transport); ok {
			transport = existing.Clone()
		} else if defaultTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			transport = defaultTransport.Clone()
		} else {
			transport = &http.Transport{}
		}
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !endpoint.VerifyTLS} //nolint:gosec
		client.Transport = transport
	}
	return &Client{httpClient: &client, base: strings.TrimSuffix(endpoint.BaseURL(), "/")}
}

// BaseURL returns the normalized module root.
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) FetchStatus(ctx context.Context) (*model.StatusPayload, error) {
	var out model.StatusPayload
	if err := c.getJSON(ctx, c.base+"/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchOutputs(ctx context.Context) (*model.OutputsPayload, error) {
	var out model.OutputsPayload
	if err := c.getJSON(ctx, c.base+"/api/cv", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchWeather(ctx context.Context) (*model.WeatherPayload, error) {
	var out model.WeatherPayload
	if err := c.getJSON(ctx, c.base+"/api/weather", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchKeys(ctx context.Context) (*model.KeysPayload, error) {
	var out model.KeysPayload
	if err := c.getJSON(ctx, c.base+"/api/keys", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveKey stores an API key for provider.
func (c *Client) SaveKey(ctx context.Context, provider, key string) error {
	return c.postForm(ctx, "/api/keys", url.Values{provider: {key}})
}

// DeleteKey removes the key for provider.
func (c *Client) DeleteKey(ctx context.Context, provider string) error {
	return c.postForm(ctx, "/api/keys", url.Values{provider: {DeleteValue}})
}

func (c *Client) SetLocation(ctx context.Context, lat, lng float64) error {
	return c.postForm(ctx, "/api/location", url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
	})
}

// SetParam assigns parameter id to an output channel such as "cv1" or "gate2".
func (c *Client) SetParam(ctx context.Context, channel string, id int) error {
	return c.postForm(ctx, "/api/params", url.Values{channel: {strconv.Itoa(id)}})
}

func (c *Client) ResetWiFi(ctx context.Context) error {
	return c.postForm(ctx, "/api/reset-wifi", nil)
}

func (c *Client) Restart(ctx context.Context) error {
	return c.postForm(ctx, "/api/restart", nil)
}

// CheckUpdate asks the module for its update source, then follows checkUrl.
// Without a checkUrl the module has nothing newer to offer.
func (c *Client) CheckUpdate(ctx context.Context) (model.UpdateInfo, error) {
	var check model.UpdateCheck
	if err := c.getJSON(ctx, c.base+"/api/check-update", &check); err != nil {
		return model.UpdateInfo{}, err
	}
	info := model.UpdateInfo{
		CurrentVersion: check.CurrentVersion,
		WizardURL:      check.UpdateWizardURL,
		Checked:        true,
	}
	if strings.TrimSpace(check.CheckURL) == "" {
		return info, nil
	}

	target, err := c.resolve(check.CheckURL)
	if err != nil {
		return model.UpdateInfo{}, &FetchError{Endpoint: check.CheckURL, Err: err}
	}
	var wizard model.WizardCheck
	if err := c.getJSON(ctx, target, &wizard); err != nil {
		return model.UpdateInfo{}, err
	}
	info.Available = wizard.UpdateAvailable
	info.LatestVersion = wizard.CurrentLatestVersion
	return info, nil
}

func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.base + "/")
	if err != nil {
		return "", err
	}
	target, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(target).String(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Endpoint: endpoint, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, values url.Values) error {
	endpoint := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method:   resp.Request.Method,
		Endpoint: resp.Request.URL.Path,
		Code:     resp.StatusCode,
		Body:     string(body),
	}
}
