// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newOllamaTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OllamaClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOllamaClient(srv.URL, "test-model")
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}
	return srv, client
}

func TestNewOllamaClientValidation(t *testing.T) {
	if _, err := NewOllamaClient("", "model"); err == nil {
		t.Error("empty base URL accepted")
	}
	if _, err := NewOllamaClient("http://localhost:11434", ""); err == nil {
		t.Error("empty model accepted")
	}

	client, err := NewOllamaClient("http://localhost:11434/", "llama3.2")
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("trailing slash not trimmed: %q", client.baseURL)
	}
	if client.Model() != "llama3.2" {
		t.Errorf("Model() = %q", client.Model())
	}
}

func TestGenerateSuccess(t *testing.T) {
	var captured ollamaGenerateRequest
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    "test-model",
			Response: "generated text",
			Done:     true,
		})
	})

	got, err := client.Generate(context.Background(), "say something",
		GenerationParams{Temperature: Float32Ptr(0.7), MaxTokens: IntPtr(128)})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "generated text" {
		t.Errorf("response = %q", got)
	}

	if captured.Model != "test-model" || captured.Stream {
		t.Errorf("request = %+v, want non-streaming test-model", captured)
	}
	if temp, ok := captured.Options["temperature"].(float64); !ok || temp < 0.69 || temp > 0.71 {
		t.Errorf("temperature option = %v", captured.Options["temperature"])
	}
	if captured.Options["num_predict"] != float64(128) {
		t.Errorf("num_predict option = %v", captured.Options["num_predict"])
	}
}

func TestGenerateDefaultOptions(t *testing.T) {
	var captured ollamaGenerateRequest
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "ok", Done: true})
	})

	if _, err := client.Generate(context.Background(), "p", GenerationParams{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if captured.Options["top_k"] != float64(20) {
		t.Errorf("top_k = %v", captured.Options["top_k"])
	}
	if captured.Options["num_predict"] != float64(8192) {
		t.Errorf("num_predict = %v", captured.Options["num_predict"])
	}
}

func TestGenerateModelNotFound(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'test-model' not found"})
	})

	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("error = %v, want ErrModelNotFound", err)
	}
	if !strings.Contains(err.Error(), "ollama pull test-model") {
		t.Errorf("error = %q, want pull hint", err)
	}
}

func TestGenerateServerError(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestGenerateUnreachableServer(t *testing.T) {
	srv, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "   ", Done: true})
	})

	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
}
