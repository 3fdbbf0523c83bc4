// pkg/saltapi/transport.go

package saltapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Response is the outcome of one HTTP exchange with salt-api. Remote and
// transport failures are reported here rather than as errors: callers
// check OK before using the parsed result.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	// Err is set when the request could not be sent, the body could not be
	// read or the body did not have the expected layout.
	Err error
}

// OK reports whether the exchange succeeded. A nil response is not OK.
func (r *Response) OK() bool {
	return r != nil && r.Err == nil && r.StatusCode > 0 && r.StatusCode < http.StatusBadRequest
}

// Reason returns a short description of the failure, or the HTTP status.
func (r *Response) Reason() string {
	switch {
	case r == nil:
		return "no request sent"
	case r.Err != nil:
		return r.Err.Error()
	default:
		return r.Status
	}
}

func (r *Response) fail(err error) {
	if r.Err == nil {
		r.Err = err
	}
}

func (r *Response) logFields() []zap.Field {
	if r == nil {
		return nil
	}
	fields := []zap.Field{zap.Int("status_code", r.StatusCode)}
	if r.Err != nil {
		fields = append(fields, zap.NamedError("reason", r.Err))
	} else {
		fields = append(fields, zap.String("reason", r.Status))
	}
	return fields
}

type request struct {
	prefix      string
	url         string
	body        []byte
	contentType string
	token       string
}

// send issues one POST and reads the full body. It never returns an error:
// failures are recorded on the Response.
func send(ctx context.Context, client *http.Client, logger *zap.Logger, r request) *Response {
	resp := &Response{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(r.body))
	if err != nil {
		resp.fail(cerr.Wrap(err, "build request"))
		return resp
	}
	req.Header.Set("Accept", mimeYAML)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("X-Auth-Token", r.token)
	}

	logger.Debug(r.prefix+": sending request",
		zap.String("url", r.url),
		zap.Any("headers", redactHeaders(req.Header)),
		zap.ByteString("body", r.body))

	httpResp, err := client.Do(req)
	if err != nil {
		resp.fail(cerr.Wrap(err, "salt-api request failed"))
		return resp
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp.StatusCode = httpResp.StatusCode
	resp.Status = httpResp.Status
	resp.Header = httpResp.Header

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		resp.fail(cerr.Wrap(err, "read salt-api response"))
		return resp
	}
	resp.Body = body
	return resp
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if strings.EqualFold(k, "X-Auth-Token") {
			out[k] = coverAuthDataWith
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func sendLoginRequest(ctx context.Context, client *http.Client, baseURL string, auth *AuthData, logger *zap.Logger) (*Response, *Token) {
	body, err := encodeYAML(auth)
	if err != nil {
		return &Response{Err: err}, nil
	}
	resp := send(ctx, client, logger, request{
		prefix:      "login",
		url:         joinURL(baseURL, "/login"),
		body:        []byte(body),
		contentType: mimeYAML,
	})
	if !resp.OK() {
		return resp, nil
	}

	var tokens []*Token
	if err := decodeReturn(resp.Body, &tokens); err != nil {
		resp.fail(err)
		return resp, nil
	}
	if len(tokens) == 0 || tokens[0] == nil || tokens[0].Token == "" {
		return resp, nil
	}
	return resp, tokens[0]
}

func sendLogoutRequest(ctx context.Context, client *http.Client, baseURL string, token *Token, logger *zap.Logger) (*Response, any) {
	body, err := encodeYAML(token)
	if err != nil {
		return &Response{Err: err}, nil
	}
	resp := send(ctx, client, logger, request{
		prefix:      "logout",
		url:         joinURL(baseURL, "/logout"),
		body:        []byte(body),
		contentType: mimeYAML,
		token:       token.Token,
	})
	if !resp.OK() {
		return resp, nil
	}

	var result any
	if err := decodeReturn(resp.Body, &result); err != nil {
		resp.fail(err)
		return resp, nil
	}
	return resp, result
}

func sendCommandRequest(ctx context.Context, client *http.Client, baseURL, token string, commands any, single bool, logger *zap.Logger) (*Response, any) {
	var (
		body        []byte
		contentType string
	)
	switch v := commands.(type) {
	case string:
		body, contentType = []byte(v), mimeYAML
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return &Response{Err: cerr.Wrap(err, "encode json")}, nil
		}
		body, contentType = raw, mimeJSON
	}

	resp := send(ctx, client, logger, request{
		prefix:      "send",
		url:         baseURL,
		body:        body,
		contentType: contentType,
		token:       token,
	})
	if !resp.OK() {
		return resp, nil
	}

	var results []any
	if err := decodeReturn(resp.Body, &results); err != nil {
		resp.fail(err)
		return resp, nil
	}
	if single {
		if len(results) == 0 {
			resp.fail(cerr.New("salt-api returned an empty result list"))
			return resp, nil
		}
		return resp, results[0]
	}
	return resp, results
}
