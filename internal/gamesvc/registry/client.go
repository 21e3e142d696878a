// Package registry is the HTTP client for the asset registry (the custody
// service that records which digital user owns which game).
package registry

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

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
)

// PageSize is the number of asset records requested per call.
const PageSize = 100

// maxPages bounds a single FindAssets walk.
const maxPages = 1000

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// errorBody is the registry's error envelope.
type errorBody struct {
	Code           string `json:"code"`
	HTTPStatusCode int    `json:"httpStatusCode"`
	Reason         string `json:"reason"`
	Message        string `json:"message"`
}

func (c *Client) CreateAsset(ctx context.Context, user identity.DigitalUser, req models.AssetRequest) (*models.AssetRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Internal("failed to encode asset request", err)
	}

	endpoint := fmt.Sprintf("%s/assets/digitalUsers/%s", c.baseURL, url.PathEscape(user.ID))
	var record models.AssetRecord
	if err := c.do(ctx, user, http.MethodPost, endpoint, bytes.NewReader(body), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindAssets returns every asset record matching q, walking the registry's
// pages sequentially until a short page is returned.
func (c *Client) FindAssets(ctx context.Context, user identity.DigitalUser, q models.OwnershipQuery) ([]models.AssetRecord, error) {
	var all []models.AssetRecord
	for page := 0; page < maxPages; page++ {
		params := ownershipParams(q)
		params.Set("offset", strconv.Itoa(page*PageSize))
		params.Set("limit", strconv.Itoa(PageSize))

		var batch []models.AssetRecord
		if err := c.do(ctx, user, http.MethodGet, c.baseURL+"/assets?"+params.Encode(), nil, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < PageSize {
			return all, nil
		}
	}
	log.WithField("digital_user", user.ID).Warn("asset registry paging stopped at page limit")
	return all, nil
}

func (c *Client) DeleteAsset(ctx context.Context, user identity.DigitalUser, externalID string) error {
	params := url.Values{}
	params.Set("digitalUserId", user.ID)
	params.Set("externalId", externalID)
	return c.do(ctx, user, http.MethodDelete, c.baseURL+"/assets?"+params.Encode(), nil, nil)
}

func ownershipParams(q models.OwnershipQuery) url.Values {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("digitalUserId", q.DigitalUserID)
	if q.ExternalIDs != nil {
		params.Set("externalIds", strings.Join(q.ExternalIDs, ","))
	}
	set("groupId", q.GroupID)
	set("artifactId", q.ArtifactID)
	set("type", q.Type)
	if q.CreatedAt != nil {
		params.Set("createdAt", q.CreatedAt.String())
	}
	if q.From != nil {
		params.Set("from", q.From.String())
	}
	if q.To != nil {
		params.Set("to", q.To.String())
	}
	return params
}

func (c *Client) do(ctx context.Context, user identity.DigitalUser, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apperr.Internal("failed to create asset registry request", err)
	}
	req.Header.Set("Authorization", user.AuthorizationHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Internal("asset registry unreachable", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).WithField("url", endpoint).Warn("failed to close response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Internal("failed to read asset registry response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Internal("failed to decode asset registry response", err)
	}
	return nil
}

// statusError maps a non-2xx registry response onto the catalog's taxonomy.
func statusError(status int, body []byte) error {
	message := fmt.Sprintf("asset registry responded %d", status)
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		message = eb.Message
	}

	switch status {
	case http.StatusBadRequest:
		return apperr.New(apperr.CodeParameterInvalid, message)
	case http.StatusUnauthorized:
		return apperr.New(apperr.CodeNotAuthenticated, message)
	case http.StatusForbidden:
		return apperr.New(apperr.CodeNotAuthorized, message)
	case http.StatusNotFound:
		return apperr.New(apperr.CodeNotFound, message)
	case http.StatusConflict:
		return apperr.New(apperr.CodeAlreadyExists, message)
	}
	return apperr.Internal(message, fmt.Errorf("status %d", status))
}
