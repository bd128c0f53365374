package chardev

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// HTTPDeviceRegistry is a DeviceRegistry backed by a device-manager REST
// API. It maps the registry operations onto:
//
//	POST   /v1/char-devices              {"name"}                     -> {"major"}
//	DELETE /v1/char-devices/{major}?name=...
//	POST   /v1/device-classes            {"name"}                     -> {"handle"}
//	DELETE /v1/device-classes/{handle}
//	POST   /v1/device-nodes              {"class_handle","major","name"} -> {"handle"}
//	DELETE /v1/device-nodes/{handle}
type HTTPDeviceRegistry struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     Logger
}

// NewHTTPDeviceRegistry creates a registry client for the device manager
// at baseURL.
func NewHTTPDeviceRegistry(baseURL string) *HTTPDeviceRegistry {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	return &HTTPDeviceRegistry{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewHTTPDeviceRegistryFromEnv creates a registry client using environment
// variables for the device-manager address.
func NewHTTPDeviceRegistryFromEnv() *HTTPDeviceRegistry {
	addr := strings.TrimSpace(os.Getenv("DEVMGR_HTTP_ADDR"))
	if addr == "" {
		addr = strings.TrimSpace(os.Getenv("DEVICE_MANAGER_HTTP_ADDR"))
	}
	if addr == "" {
		addr = "http://127.0.0.1:8090"
	}
	return NewHTTPDeviceRegistry(addr)
}

func (r *HTTPDeviceRegistry) RegisterChar(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("device name is required")
	}

	var out struct {
		Major int `json:"major"`
	}
	err := r.post(ctx, "/v1/char-devices", map[string]any{"name": name}, &out)
	if err != nil {
		return 0, err
	}
	return out.Major, nil
}

func (r *HTTPDeviceRegistry) UnregisterChar(ctx context.Context, major int, name string) error {
	path := "/v1/char-devices/" + strconv.Itoa(major)
	if name = strings.TrimSpace(name); name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	return r.delete(ctx, path)
}

func (r *HTTPDeviceRegistry) CreateClass(ctx context.Context, name string) (ClassHandle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("class name is required")
	}

	var out struct {
		Handle string `json:"handle"`
	}
	err := r.post(ctx, "/v1/device-classes", map[string]any{"name": name}, &out)
	if err != nil {
		return "", err
	}
	return ClassHandle(out.Handle), nil
}

func (r *HTTPDeviceRegistry) DestroyClass(ctx context.Context, class ClassHandle) error {
	return r.delete(ctx, "/v1/device-classes/"+url.PathEscape(string(class)))
}

func (r *HTTPDeviceRegistry) PublishNode(ctx context.Context, class ClassHandle, major int, name string) (NodeHandle, error) {
	var out struct {
		Handle string `json:"handle"`
	}
	err := r.post(ctx, "/v1/device-nodes", map[string]any{
		"class_handle": string(class),
		"major":        major,
		"name":         strings.TrimSpace(name),
	}, &out)
	if err != nil {
		return "", err
	}
	return NodeHandle(out.Handle), nil
}

func (r *HTTPDeviceRegistry) RemoveNode(ctx context.Context, node NodeHandle) error {
	return r.delete(ctx, "/v1/device-nodes/"+url.PathEscape(string(node)))
}

func (r *HTTPDeviceRegistry) post(ctx context.Context, path string, payload any, out any) error {
	if r == nil {
		return fmt.Errorf("device registry client is nil")
	}
	if strings.TrimSpace(r.BaseURL) == "" {
		return fmt.Errorf("BaseURL is empty")
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := r.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s: %s", http.MethodPost, path, resp.Status, strings.TrimSpace(string(b)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return err
	}
	return nil
}

func (r *HTTPDeviceRegistry) delete(ctx context.Context, path string) error {
	if r == nil {
		return fmt.Errorf("device registry client is nil")
	}
	if strings.TrimSpace(r.BaseURL) == "" {
		return fmt.Errorf("BaseURL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.BaseURL+path, nil)
	if err != nil {
		return err
	}

	hc := r.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s: %s", http.MethodDelete, path, resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}
