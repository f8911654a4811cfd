// Package main implements the kbctl CLI for manual operations against the
// knowledged HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the knowledged HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "CLI for knowledged HTTP server operations",
	Long: `kbctl is a command-line interface for interacting with the knowledged server.
It provides commands for uploading documents, querying the knowledge base and
checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9620", "knowledged server URL")
	rootCmd.AddCommand(uploadCmd)
	queryCmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (0 = server default)")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(existsCmd)
	rootCmd.AddCommand(healthCmd)
}

// uploadCmd ingests PDF documents into the knowledge base
var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf> [more.pdf ...]",
	Short: "Upload PDF documents into the knowledge base",
	Long: `Upload one or more PDF documents to the knowledged server for ingestion.
Files are processed sequentially; a failing file does not abort the rest.

Examples:
  # Upload a single document
  kbctl upload labor-law.pdf

  # Upload several documents
  kbctl upload contracts/*.pdf

  # Use a different server
  kbctl upload --server http://localhost:9700 labor-law.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

// queryCmd retrieves context for a question
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Query the knowledge base",
	Long: `Query the knowledge base and print the assembled context block with
per-match scores.

Examples:
  kbctl query "When is severance pay due?"

  # Retrieve more chunks
  kbctl query --top-k 10 "What does the lease require?"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

// topK is the number of chunks requested per query; 0 uses the server default.
var topK int

// existsCmd checks whether an entry id is indexed
var existsCmd = &cobra.Command{
	Use:   "exists <id>",
	Short: "Check whether an entry id is indexed",
	Args:  cobra.ExactArgs(1),
	RunE:  runExists,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check knowledged server health",
	Long: `Check the health status of the knowledged HTTP server.

Examples:
  # Check health
  kbctl health

  # Check health on a different server
  kbctl health --server http://localhost:9700`,
	RunE: runHealth,
}

// Response types match internal/http/types.go.

type uploadResponse struct {
	Source         string `json:"source"`
	ChunksProduced int    `json:"chunks_produced"`
	ChunksUploaded int    `json:"chunks_uploaded"`
	Replaced       bool   `json:"replaced"`
}

type existsRequest struct {
	ID string `json:"id"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type queryRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

type queryMatch struct {
	Score    float32 `json:"score"`
	Metadata struct {
		Source     string `json:"source"`
		ChunkIndex int    `json:"chunk_index"`
	} `json:"metadata"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
	Context string       `json:"context"`
	Message string       `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// runUpload handles the upload command
func runUpload(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Minute}

	var failures int
	for _, path := range args {
		if err := uploadFile(client, path); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d uploads failed", failures, len(args))
	}
	return nil
}

func uploadFile(client *http.Client, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/upload", serverURL)
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var uploadResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("%s: uploaded %d/%d chunks", uploadResp.Source, uploadResp.ChunksUploaded, uploadResp.ChunksProduced)
	if uploadResp.Replaced {
		fmt.Print(" (replaced previous version)")
	}
	fmt.Println()
	return nil
}

// runQuery handles the query command
func runQuery(cmd *cobra.Command, args []string) error {
	var queryResp queryResponse
	if err := postJSON("/api/v1/query", queryRequest{Question: args[0], K: topK}, &queryResp); err != nil {
		return err
	}

	if queryResp.Message != "" {
		fmt.Println(queryResp.Message)
		return nil
	}

	for i, match := range queryResp.Matches {
		fmt.Fprintf(os.Stderr, "[%d] score=%.4f source=%s chunk=%d\n",
			i+1, match.Score, match.Metadata.Source, match.Metadata.ChunkIndex)
	}
	fmt.Println(queryResp.Context)
	return nil
}

// runExists handles the exists command
func runExists(cmd *cobra.Command, args []string) error {
	var existsResp existsResponse
	if err := postJSON("/api/v1/exists", existsRequest{ID: args[0]}, &existsResp); err != nil {
		return err
	}

	fmt.Printf("%v\n", existsResp.Exists)
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", health.Status)
	return nil
}

// postJSON sends a JSON request to the server and decodes the JSON response.
func postJSON(path string, reqBody, respBody interface{}) error {
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := serverURL + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
