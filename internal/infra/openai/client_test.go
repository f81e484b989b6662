package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClient("key", url, time.Second)
	c.delay = time.Millisecond
	return c
}

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("неожиданный путь %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("неожиданный Authorization %q", got)
		}
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("не смогли разобрать запрос: %v", err)
		}
		if req.Model != "m" || len(req.Messages) != 1 {
			t.Errorf("неожиданный запрос %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL+"/").CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:    "m",
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if text, ok := resp.Content(); !ok || text != "hi" {
		t.Fatalf("ожидали hi, получили %q", text)
	}
}

func TestCreateChatCompletionRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"}); err != nil {
		t.Fatalf("не ожидали ошибку после повторов: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("ожидали 3 попытки, получили %d", calls)
	}
}

func TestCreateChatCompletionClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидали APIError, получили %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "bad model" {
		t.Fatalf("неожиданная ошибка %+v", apiErr)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("ожидали одну попытку, получили %d", calls)
	}
}

func TestCreateChatCompletionWithoutKey(t *testing.T) {
	_, err := NewClient("", "", 0).CreateChatCompletion(context.Background(), ChatCompletionRequest{})
	if !errors.Is(err, ErrEmptyAPIKey) {
		t.Fatalf("ожидали ErrEmptyAPIKey, получили %v", err)
	}
}
