package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
	"foodcollab/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const DefaultBaseURL = "https://graph.facebook.com/v19.0"

// APIError is a non-success Graph API response. The body is retained so
// callers can log the provider's error detail.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	HTTPClient   *http.Client
}

// Client talks to the Meta Graph API for token exchange, account resolution
// and media lookup.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
}

func NewClient(conf *Config) *Client {
	baseURL := conf.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := conf.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		clientID:     conf.ClientID,
		clientSecret: conf.ClientSecret,
		baseURL:      baseURL,
		httpClient:   httpClient,
	}
}

type longLivedTokenOpts struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FBExchangeToken string `url:"fb_exchange_token"`
}

func (c *Client) ExchangeLongLivedToken(ctx context.Context, shortToken string) (string, int64, error) {
	opts := longLivedTokenOpts{
		GrantType:       "fb_exchange_token",
		ClientID:        c.clientID,
		ClientSecret:    c.clientSecret,
		FBExchangeToken: shortToken,
	}
	var data struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.get(ctx, "/oauth/access_token", opts, &data); err != nil {
		return "", 0, err
	}
	return data.AccessToken, data.ExpiresIn, nil
}

type accountsOpts struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

func (c *Client) GetLinkedBusinessAccount(ctx context.Context, accessToken string) (*model.InstagramBusinessAccount, error) {
	opts := accountsOpts{
		Fields:      "id,name,access_token,instagram_business_account{id,username}",
		AccessToken: accessToken,
	}
	var pages struct {
		Data []struct {
			ID                       string `json:"id"`
			Name                     string `json:"name"`
			AccessToken              string `json:"access_token"`
			InstagramBusinessAccount *struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/me/accounts", opts, &pages); err != nil {
		return nil, err
	}
	for _, page := range pages.Data {
		if page.InstagramBusinessAccount == nil {
			continue
		}
		return &model.InstagramBusinessAccount{
			PageID:      page.ID,
			PageName:    page.Name,
			PageToken:   page.AccessToken,
			BusinessID:  page.InstagramBusinessAccount.ID,
			Username:    page.InstagramBusinessAccount.Username,
			AccountType: "business",
		}, nil
	}
	return nil, nil
}

type mediaOpts struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

func (c *Client) GetMedia(ctx context.Context, mediaID, accessToken string) (json.RawMessage, error) {
	opts := mediaOpts{
		Fields:      "id,media_type,media_url,permalink,timestamp",
		AccessToken: accessToken,
	}
	var raw json.RawMessage
	if err := c.get(ctx, "/"+mediaID, opts, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string, opts interface{}, out interface{}) error {
	values, err := query.Values(opts)
	if err != nil {
		return err
	}
	reqURL := c.baseURL + path + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("path", path).Debug("graph api non-success response")
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.Unmarshal(body, out)
}

var _ repository.IInstagram = (*Client)(nil)
