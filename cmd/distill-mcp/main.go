// distill-mcp exposes the distill HTTP API as an MCP stdio server, so agent
// runtimes can scrape pages without speaking HTTP themselves.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the distill API request model.
type scrapeRequest struct {
	URL         string `json:"url"`
	Mode        string `json:"mode,omitempty"`
	ExtractMode string `json:"extract_mode,omitempty"`
	Format      string `json:"format,omitempty"`
	MaxAgeMs    int    `json:"max_age_ms,omitempty"`
}

// scrapeResponse mirrors the distill API response model.
type scrapeResponse struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Method        string `json:"method"`
	Success       bool   `json:"success"`
	ContentLength int    `json:"content_length"`
	Debug         *struct {
		Error  string `json:"error"`
		Stderr string `json:"stderr"`
	} `json:"debug"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("DISTILL_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"distill",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_page",
		mcp.WithDescription("Scrape a web page and return its distilled text content. Renders JavaScript-heavy pages in a headless browser and strips navigation, banners and other chrome."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("mode",
			mcp.Description("Scrape path: 'rendered' (default, pooled headless browser), 'static' (plain HTTP fetch, no JS), or 'isolated' (single-use browser in a child process, for pages that crash browsers)"),
			mcp.Enum("rendered", "static", "isolated"),
		),
		mcp.WithString("extract_mode",
			mcp.Description("Extraction mode: 'heuristic' (default, noise-filtered text plus product data) or 'readability' (main article extraction)"),
			mcp.Enum("heuristic", "readability"),
		),
		mcp.WithString("format",
			mcp.Description("Readability output format: 'markdown' (default) or 'text'"),
			mcp.Enum("markdown", "text"),
		),
	)

	s.AddTool(scrapeTool, handleScrapePage(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapePage(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:         url,
			Mode:        request.GetString("mode", ""),
			ExtractMode: request.GetString("extract_mode", ""),
			Format:      request.GetString("format", ""),
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/scrape", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if scrapeResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", scrapeResp.Error.Code, scrapeResp.Error.Message)), nil
		}
		if !scrapeResp.Success {
			errMsg := "scrape failed: content below threshold"
			if scrapeResp.Debug != nil && scrapeResp.Debug.Error != "" {
				errMsg = "scrape failed: " + scrapeResp.Debug.Error
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(scrapeResp.Content), nil
	}
}
