package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultAPIURL = "http://localhost:8080"

// envelope mirrors the server's response wrapper
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

// APIError is a failed call; Message is what the server said
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type book struct {
	ID       int64  `json:"id"`
	BookCode string `json:"bookCode"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Status   string `json:"status"`
}

type borrowRecord struct {
	ID         int64           `json:"id"`
	UserEmail  string          `json:"userEmail"`
	BookCode   string          `json:"bookCode"`
	BookTitle  string          `json:"bookTitle"`
	BorrowDate string          `json:"borrowDate"`
	DueDate    string          `json:"dueDate"`
	ReturnDate *string         `json:"returnDate"`
	LateFee    jsoniter.Number `json:"lateFee"`
}

type userActivity struct {
	Email         string `json:"email"`
	BorrowedCount int64  `json:"borrowedCount"`
	ReturnedCount int64  `json:"returnedCount"`
}

type monthlyReport struct {
	Month         string         `json:"month"`
	StartDate     string         `json:"startDate"`
	EndDate       string         `json:"endDate"`
	BooksBorrowed []borrowRecord `json:"booksBorrowed"`
	BooksReturned []borrowRecord `json:"booksReturned"`
	OverdueBooks  []borrowRecord `json:"overdueBooks"`
	UserActivity  []userActivity `json:"userActivity"`
}

type profile struct {
	LibraryID string `json:"libraryId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// client talks to the LibraryDesk API
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// call performs the request and decodes data into out when out is non-nil.
// It returns the server's message.
func (c *client) call(ctx context.Context, method, path string, body, out interface{}) (string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot reach %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", &APIError{Status: resp.StatusCode}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return "", &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("unexpected response: %w", err)
		}
	}
	return env.Message, nil
}

// tokenStore keeps the session token in the user's config directory
type tokenStore struct {
	path string
}

func defaultTokenStore() (*tokenStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &tokenStore{path: filepath.Join(dir, "librarydesk", "token")}, nil
}

func (s *tokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *tokenStore) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *tokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
