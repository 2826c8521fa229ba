// Package cli implements the relayctl operator commands, a thin client for
// the relay HTTP API.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var apiBaseURL string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Operate a running chatpilot relay",
	Long:  "Manage contacts, objectives, the approval queue, and settings of a running relay over its HTTP API.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&apiBaseURL, "api-url", "a", "", "Relay base URL (default: $RELAY_API_URL or http://127.0.0.1:5001)")
}

func baseURL() string {
	if apiBaseURL != "" {
		return strings.TrimRight(apiBaseURL, "/")
	}
	if env := os.Getenv("RELAY_API_URL"); env != "" {
		return strings.TrimRight(env, "/")
	}
	return "http://127.0.0.1:5001"
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func getJSON(path string, out any) error {
	resp, err := httpClient.Get(baseURL() + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(path string, payload, out any) error {
	return sendJSON(http.MethodPost, path, payload, out)
}

func putJSON(path string, payload, out any) error {
	return sendJSON(http.MethodPut, path, payload, out)
}

func deleteJSON(path string) error {
	req, err := http.NewRequest(http.MethodDelete, baseURL()+path, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, nil)
}

func sendJSON(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, baseURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Println(string(raw))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
