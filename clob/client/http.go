package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/betcli/gotrade/clob/types"
)

// httpClient HTTP 客户端封装
type httpClient struct {
	client *http.Client
	host   string
}

// newHTTPClient 创建新的 HTTP 客户端
func newHTTPClient(host string, timeout time.Duration) *httpClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &httpClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		host: strings.TrimSuffix(host, "/"),
	}
}

// get 执行 GET 请求
func (h *httpClient) get(ctx context.Context, endpoint string, headers map[string]string, params map[string]string) (*http.Response, error) {
	reqURL, err := buildURL(h.host+endpoint, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindTransport, Msg: "build request failed", Cause: err}
	}

	h.setDefaultHeaders(req)
	req.Header.Set("Accept-Encoding", "gzip")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.do(req)
}

// post 执行 POST 请求。
// body 为预序列化的 JSON：提交重试时调用方复用同一份字节，
// 此处绝不重新序列化。
func (h *httpClient) post(ctx context.Context, endpoint string, headers map[string]string, body []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.host+endpoint, bodyReader)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindTransport, Msg: "build request failed", Cause: err}
	}

	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.do(req)
}

// delete 执行 DELETE 请求
func (h *httpClient) delete(ctx context.Context, endpoint string, headers map[string]string, body []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, h.host+endpoint, bodyReader)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindTransport, Msg: "build request failed", Cause: err}
	}

	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.do(req)
}

func (h *httpClient) do(req *http.Request) (*http.Response, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		// 网络层失败一律视为瞬时错误
		return nil, types.ErrTransient.WithCause(err)
	}
	return resp, nil
}

// setDefaultHeaders 设置默认请求头
func (h *httpClient) setDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "gotrade-clob")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/json")
}

func buildURL(base string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindTransport, Msg: "parse url failed", Cause: err}
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseResponse 解析响应并按状态码分类错误：
//   - 429 与 5xx: transient，调用方可有界重试
//   - 404: not found
//   - 其余 4xx: 接受拒绝，绝不重试
func parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return &types.Error{Kind: types.ErrKindTransport, Msg: "gzip decode failed", Cause: err}
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(reader, 16<<10))
		detail := strings.TrimSpace(string(bodyBytes))

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return types.ErrTransient.WithCause(fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail))
		case resp.StatusCode == http.StatusNotFound:
			return types.ErrNotFound.WithCause(fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail))
		default:
			return &types.Error{
				Kind: types.ErrKindValidation,
				Msg:  "request rejected",
				Cause: fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail),
			}
		}
	}

	if result != nil {
		bodyBytes, err := io.ReadAll(reader)
		if err != nil {
			return types.ErrTransient.WithCause(err)
		}
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return &types.Error{Kind: types.ErrKindTransport, Msg: "decode response failed", Cause: err}
		}
	}

	return nil
}
