// ABOUTME: Raw-HTTP client for the generative service's three call shapes.
// ABOUTME: Structured content calls, synchronous image calls, and asynchronous video jobs, all with per-call query-parameter credentials.

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// AspectRatio is the closed set of aspect ratios the image call accepts.
type AspectRatio string

const (
	AspectSquare      AspectRatio = "1:1"
	AspectLandscape   AspectRatio = "16:9"
	AspectPortrait    AspectRatio = "9:16"
	AspectWideClassic AspectRatio = "4:3"
	AspectTallClassic AspectRatio = "3:4"
)

// ValidAspectRatio reports whether r is one of the accepted ratios.
func ValidAspectRatio(r AspectRatio) bool {
	switch r {
	case AspectSquare, AspectLandscape, AspectPortrait, AspectWideClassic, AspectTallClassic:
		return true
	}
	return false
}

// Content is one turn of model input.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single piece of a content turn: text or inline media.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob carries inline media as base64 with its mime type.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerationConfig carries the structured-output contract for a content call.
// ResponseSchema is the declared schema the response must satisfy.
type GenerationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
}

// ContentRequest is the body of a structured content call.
type ContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// TextRequest builds a single-turn user request from prompt text.
func TextRequest(prompt string) ContentRequest {
	return ContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	}
}

// ImageData is raw image bytes plus their mime type.
type ImageData struct {
	Bytes    []byte
	MIMEType string
}

// VideoJobRequest is the payload of an asynchronous video generation job.
type VideoJobRequest struct {
	Prompt      string
	AspectRatio AspectRatio
	StartFrame  *ImageData
}

// Client talks to the generative service over HTTP. The credential is passed
// per call as a query parameter, never stored on the client, so the failover
// executor can rotate keys freely.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the service base URL (used by tests and proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.HTTPClient = h }
}

// NewClient creates a Client with the given options applied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateContent executes a structured content call and returns the text of
// the first candidate. When the request declares a response schema, that text
// is the JSON document the caller decodes against its contract.
func (c *Client) GenerateContent(ctx context.Context, key, model string, req ContentRequest) (string, error) {
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", model)

	var resp contentResponse
	if err := c.doJSON(ctx, http.MethodPost, path, key, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", &SchemaViolationError{Cause: fmt.Errorf("response carried no candidates")}
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", &SchemaViolationError{Cause: fmt.Errorf("response candidate carried no text")}
	}
	return b.String(), nil
}

// GenerateImage executes a synchronous image call and returns the raw bytes
// plus mime type of the first prediction.
func (c *Client) GenerateImage(ctx context.Context, key, model, prompt string, aspect AspectRatio) (ImageData, error) {
	if !ValidAspectRatio(aspect) {
		return ImageData{}, fmt.Errorf("unsupported aspect ratio %q", aspect)
	}

	path := fmt.Sprintf("/v1beta/models/%s:predict", model)
	body := predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: 1, AspectRatio: string(aspect)},
	}

	var resp predictResponse
	if err := c.doJSON(ctx, http.MethodPost, path, key, body, &resp); err != nil {
		return ImageData{}, err
	}

	if len(resp.Predictions) == 0 || len(resp.Predictions[0].Bytes) == 0 {
		return ImageData{}, &SchemaViolationError{Cause: fmt.Errorf("prediction carried no image bytes")}
	}
	pred := resp.Predictions[0]
	mime := pred.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return ImageData{Bytes: pred.Bytes, MIMEType: mime}, nil
}

// SubmitVideoJob starts an asynchronous video generation job and returns its
// operation handle.
func (c *Client) SubmitVideoJob(ctx context.Context, key, model string, req VideoJobRequest) (Operation, error) {
	path := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", model)

	instance := videoInstance{Prompt: req.Prompt}
	if req.StartFrame != nil {
		instance.Image = &videoImage{
			BytesBase64Encoded: req.StartFrame.Bytes,
			MIMEType:           req.StartFrame.MIMEType,
		}
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = AspectLandscape
	}
	body := videoJobBody{
		Instances:  []videoInstance{instance},
		Parameters: videoParameters{AspectRatio: string(aspect)},
	}

	var resp operationResponse
	if err := c.doJSON(ctx, http.MethodPost, path, key, body, &resp); err != nil {
		return Operation{}, err
	}
	return resp.toOperation(), nil
}

// PollOperation fetches the current state of a long-running operation.
func (c *Client) PollOperation(ctx context.Context, key string, op Operation) (Operation, error) {
	path := "/v1beta/" + strings.TrimPrefix(op.Name, "/")

	var resp operationResponse
	if err := c.doJSON(ctx, http.MethodGet, path, key, nil, &resp); err != nil {
		return Operation{}, err
	}
	return resp.toOperation(), nil
}

// Download fetches a result descriptor URI, attaching the same credential as
// a query parameter, and returns the raw bytes.
func (c *Client) Download(ctx context.Context, key, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing result URI: %w", err)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("downloading result: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading result body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(httpResp.StatusCode, data)
	}
	return data, nil
}

// doJSON builds and executes one request against the service, decoding the
// response into out. Non-200 responses are translated through the error
// taxonomy in classify.go.
func (c *Client) doJSON(ctx context.Context, method, path, key string, body, out any) error {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	fullURL := c.BaseURL + path + sep + "key=" + url.QueryEscape(key)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling service: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return parseErrorResponse(httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &SchemaViolationError{Cause: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// serviceErrorResponse is the error envelope the service wraps failures in.
type serviceErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseErrorResponse translates a non-200 response into a typed boundary error.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp serviceErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return errorFromStatus(statusCode, "", fmt.Sprintf("HTTP %d", statusCode))
	}
	return errorFromStatus(statusCode, errResp.Error.Status, errResp.Error.Message)
}

type contentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type predictResponse struct {
	Predictions []struct {
		Bytes    []byte `json:"bytesBase64Encoded"`
		MIMEType string `json:"mimeType"`
	} `json:"predictions"`
}

type videoJobBody struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoImage struct {
	BytesBase64Encoded []byte `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (r operationResponse) toOperation() Operation {
	op := Operation{Name: r.Name, Done: r.Done}
	if r.Error != nil {
		op.Err = &OperationError{Code: r.Error.Code, Message: r.Error.Message}
	}
	if r.Response != nil {
		samples := r.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 {
			op.ResultURI = samples[0].Video.URI
		}
	}
	return op
}
