package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// createHTTPRequest creates an http.Request from an API Gateway event
func createHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	var body io.Reader
	if req.Body != "" {
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return nil, err
			}
			body = strings.NewReader(string(decoded))
		} else {
			body = strings.NewReader(req.Body)
		}
	}

	// Resolve path parameters into the full request path
	path := req.Path
	for param, value := range req.PathParameters {
		path = strings.ReplaceAll(path, "{"+param+"}", value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, path, body)
	if err != nil {
		return nil, err
	}

	if len(req.QueryStringParameters) > 0 {
		query := httpReq.URL.Query()
		for param, value := range req.QueryStringParameters {
			query.Add(param, value)
		}
		httpReq.URL.RawQuery = query.Encode()
	}

	for key, value := range req.Headers {
		httpReq.Header.Add(key, value)
	}
	if ip := req.RequestContext.Identity.SourceIP; ip != "" {
		httpReq.RemoteAddr = ip
	}

	return httpReq, nil
}

// responseRecorder captures the router's HTTP response
type responseRecorder struct {
	headers    http.Header
	body       []byte
	statusCode int
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		headers:    http.Header{},
		statusCode: http.StatusOK,
	}
}

// Header implements the http.ResponseWriter interface
func (r *responseRecorder) Header() http.Header {
	return r.headers
}

// Write implements the http.ResponseWriter interface
func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return len(body), nil
}

// WriteHeader implements the http.ResponseWriter interface
func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}

// toProxyResponse converts the captured response to an API Gateway response
func (r *responseRecorder) toProxyResponse() events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(r.headers))
	for key := range r.headers {
		headers[key] = r.headers.Get(key)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: r.statusCode,
		Headers:    headers,
		Body:       string(r.body),
	}
}
