// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package signer sends SigV4 signed requests to AWS managed services that
// have no SDK client for their data plane, such as an Elasticsearch domain.
package signer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/xmidt-org/httpaux/erraux"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// Errors that can be returned by this package. They are returned wrapped so
// use errors.Is() to check for them.
var (
	ErrAuth            = errors.New("aws credentials are missing or invalid")
	ErrTransport       = errors.New("http client failed while sending request")
	ErrNonSuccess      = errors.New("service responded with a non-success status code")
	ErrInvalidEndpoint = errors.New("endpoint host is not of the form name.region.service.amazonaws.com")
	ErrNoCredentials   = errors.New("a credentials provider is required")
)

var (
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
	errSigningFailure     = errors.New("failed signing the request")
)

const (
	errWrappedFmt = "%w: %s"

	defaultScheme = "https"
	contentType   = "application/json"
)

// Config contains the data needed to sign and send requests.
type Config struct {
	// Credentials provides the long term or session credentials used for signing.
	Credentials aws.CredentialsProvider

	// Region overrides the region derived from the endpoint host.
	// (Optional).
	Region string

	// Service overrides the service derived from the endpoint host.
	// (Optional).
	Service string

	// Scheme of the request URL.
	// (Optional). Defaults to https.
	Scheme string

	// HTTPClient refers to the client that will be used to send requests.
	// (Optional) Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger to be used by the client.
	// (Optional). By default a no op logger will be used.
	Logger *zap.Logger

	// Now returns the signing time.
	// (Optional). Defaults to time.Now.
	Now func() time.Time
}

// Client signs and sends requests to a service endpoint.
type Client struct {
	credentials aws.CredentialsProvider
	region      string
	service     string
	scheme      string
	client      *http.Client
	logger      *zap.Logger
	now         func() time.Time
	signer      *v4.Signer
}

// New creates a Client from the config.
func New(config Config) (*Client, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &Client{
		credentials: config.Credentials,
		region:      config.Region,
		service:     config.Service,
		scheme:      config.Scheme,
		client:      config.HTTPClient,
		logger:      config.Logger,
		now:         config.Now,
		signer:      v4.NewSigner(),
	}, nil
}

// Do signs and sends a request to host and returns the raw response body.
// A non-2xx response returns the body along with an error wrapping
// ErrNonSuccess that carries the status code.
func (c *Client) Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error) {
	scope, err := c.scope(host)
	if err != nil {
		return nil, err
	}

	creds, err := c.credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, ErrAuth, err.Error())
	}
	if !creds.HasKeys() {
		return nil, ErrAuth
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(fmt.Sprintf("%s://%s%s", c.scheme, scope.Host, path))
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	r.Header.Set("Content-Type", contentType)

	err = c.signer.SignHTTP(ctx, creds, r, payloadHash(body), scope.Service, scope.Region, c.now().UTC())
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, errSigningFailure, err.Error())
	}

	resp, err := c.client.Do(r)
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}

	c.logger.Debug("sent signed request",
		zap.String("method", method), zap.String("host", scope.Host),
		zap.String("path", path), zap.Int("code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, fmt.Errorf("%w: %w", ErrNonSuccess, &erraux.Error{
			Err:  errors.New(string(respBody)),
			Code: resp.StatusCode,
		})
	}
	return respBody, nil
}

// scope resolves the signing region and service for host. Explicitly
// configured values win over the ones derived from the host.
func (c *Client) scope(host string) (Endpoint, error) {
	if c.region != "" && c.service != "" {
		return Endpoint{
			Host:    strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://"),
			Region:  c.region,
			Service: c.service,
		}, nil
	}
	e, err := ParseEndpoint(host)
	if err != nil {
		return e, err
	}
	if c.region != "" {
		e.Region = c.region
	}
	if c.service != "" {
		e.Service = c.service
	}
	return e, nil
}

// StatusCode returns the HTTP status code carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var herr *erraux.Error
	if errors.As(err, &herr) {
		return herr.Code
	}
	return 0
}

func payloadHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func validateConfig(config *Config) error {
	if config.Credentials == nil {
		return ErrNoCredentials
	}
	if config.Scheme == "" {
		config.Scheme = defaultScheme
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Logger == nil {
		config.Logger = sallust.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return nil
}
