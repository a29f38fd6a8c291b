package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/quill/internal/providertest"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/recovery"
	"mercator-hq/quill/pkg/storage"
)

type providerMap map[string]providers.Provider

func (m providerMap) GetProvider(name string) (providers.Provider, error) {
	p, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

type failingStore struct {
	storage.Store
}

func (failingStore) Save(ctx context.Context, r *storage.Record) error {
	return storage.NewStorageError("memory", "save", errors.New("disk full"))
}

var fixedNow = time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

func testConfig() config.GenerationConfig {
	return config.GenerationConfig{
		DefaultProvider: "stub",
		MaxPromptLength: 100,
		MaxTokens:       512,
		Temperature:     0.2,
		Recovery: config.RecoveryConfig{
			PrimaryField:   "title",
			BodyField:      "specs",
			ConfidentField: "confident",
			BracketMode:    "greedy",
			PreviewLength:  20,
		},
	}
}

func newTestService(t *testing.T, reply string) (*Service, *providertest.StubProvider, *storage.MemoryStore) {
	t.Helper()
	stub := providertest.NewStubProvider("stub", reply)
	store := storage.NewMemoryStore()
	svc, err := NewService(testConfig(), providerMap{"stub": stub}, store,
		WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	return svc, stub, store
}

func TestService_Generate(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantTitle string
		wantSpecs string
		confident bool
		path      string
	}{
		{
			name:      "strict",
			reply:     "```json\n{\"title\": \"Blue Mug\", \"specs\": \"- 350ml\\n- ceramic\", \"confident\": true}\n```",
			wantTitle: "Blue Mug",
			wantSpecs: "- 350ml\n- ceramic",
			confident: true,
			path:      "strict",
		},
		{
			name:      "salvaged truncated output",
			reply:     `{"title": "Blue Mug", "specs": "- 350ml\n- ceram`,
			wantTitle: "Blue Mug",
			wantSpecs: "- 350ml - ceram",
			confident: false,
			path:      "salvaged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, stub, store := newTestService(t, tt.reply)

			gen, err := svc.Generate(context.Background(), &Request{Prompt: "  a blue ceramic mug  ", RequestID: "req-1"})
			if err != nil {
				t.Fatalf("Generate() failed: %v", err)
			}

			if gen.Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, gen.Title)
			}
			if gen.Specs != tt.wantSpecs {
				t.Errorf("expected specs %q, got %q", tt.wantSpecs, gen.Specs)
			}
			if gen.Confident != tt.confident {
				t.Errorf("expected confident %v, got %v", tt.confident, gen.Confident)
			}
			if gen.RecoveryPath != tt.path {
				t.Errorf("expected path %q, got %q", tt.path, gen.RecoveryPath)
			}
			if gen.Status != storage.StatusSuccess {
				t.Errorf("expected status success, got %q", gen.Status)
			}
			if gen.Prompt != "a blue ceramic mug" {
				t.Errorf("expected trimmed prompt, got %q", gen.Prompt)
			}
			if gen.Usage.TotalTokens != 12 {
				t.Errorf("expected 12 total tokens, got %d", gen.Usage.TotalTokens)
			}

			stored, err := store.Get(context.Background(), gen.ID)
			if err != nil {
				t.Fatalf("expected record to be stored: %v", err)
			}
			if diff := cmp.Diff(gen, FromRecord(stored)); diff != "" {
				t.Errorf("stored record mismatch (-returned +stored):\n%s", diff)
			}

			reqs := stub.Requests()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 provider request, got %d", len(reqs))
			}
			sent := reqs[0]
			if !sent.JSONMode {
				t.Error("expected JSON mode")
			}
			if sent.MaxTokens != 512 || sent.Temperature != 0.2 {
				t.Errorf("unexpected sampling parameters: max_tokens=%d temperature=%v", sent.MaxTokens, sent.Temperature)
			}
			if len(sent.Messages) != 2 || sent.Messages[0].Role != providers.RoleSystem {
				t.Fatalf("expected system and user messages, got %+v", sent.Messages)
			}
			if !strings.Contains(sent.Messages[0].Content, `"specs"`) {
				t.Errorf("expected system prompt to name the body field, got %q", sent.Messages[0].Content)
			}
			if !strings.HasSuffix(sent.Messages[1].Content, "a blue ceramic mug") {
				t.Errorf("unexpected user message %q", sent.Messages[1].Content)
			}
		})
	}
}

func TestService_GenerateInvalid(t *testing.T) {
	svc, stub, _ := newTestService(t, "{}")

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{"nil", nil, ErrInvalidRequest},
		{"empty", &Request{Prompt: "   "}, ErrInvalidRequest},
		{"too long", &Request{Prompt: strings.Repeat("x", 101)}, ErrInvalidRequest},
		{"unknown provider", &Request{Prompt: "mug", Provider: "nope"}, ErrProviderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if n := len(stub.Requests()); n != 0 {
		t.Errorf("expected no provider calls, got %d", n)
	}
}

func TestService_NoDefaultProvider(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultProvider = ""
	svc, err := NewService(cfg, providerMap{}, storage.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	_, err = svc.Generate(context.Background(), &Request{Prompt: "mug"})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestService_RecoveryFailure(t *testing.T) {
	svc, _, store := newTestService(t, "Sorry, I cannot help with that request today.")

	_, err := svc.Generate(context.Background(), &Request{Prompt: "mug"})
	if !errors.Is(err, recovery.ErrRecoveryFailed) {
		t.Fatalf("expected ErrRecoveryFailed, got %v", err)
	}

	var rfe *recovery.RecoveryFailedError
	if !errors.As(err, &rfe) {
		t.Fatalf("expected RecoveryFailedError, got %T", err)
	}
	if rfe.Preview != "Sorry, I cannot help..." {
		t.Errorf("unexpected preview %q", rfe.Preview)
	}

	records, _ := store.List(context.Background(), nil)
	if len(records) != 1 {
		t.Fatalf("expected failed attempt to be stored, got %d records", len(records))
	}
	r := records[0]
	if r.Status != storage.StatusFailed || r.ErrorType != ErrorTypeRecoveryFailed {
		t.Errorf("unexpected failure record: status=%q error_type=%q", r.Status, r.ErrorType)
	}
	if r.Preview != rfe.Preview {
		t.Errorf("expected stored preview %q, got %q", rfe.Preview, r.Preview)
	}
}

func TestService_ProviderError(t *testing.T) {
	svc, stub, store := newTestService(t, "")
	stub.Err = &providers.RateLimitError{Provider: "stub"}

	_, err := svc.Generate(context.Background(), &Request{Prompt: "mug"})
	var rle *providers.RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}

	records, _ := store.List(context.Background(), &storage.Query{Status: storage.StatusFailed})
	if len(records) != 1 {
		t.Fatalf("expected 1 failed record, got %d", len(records))
	}
	if records[0].ErrorType != providers.ErrorTypeRateLimit {
		t.Errorf("expected error type %q, got %q", providers.ErrorTypeRateLimit, records[0].ErrorType)
	}
}

func TestService_StorageFailure(t *testing.T) {
	stub := providertest.NewStubProvider("stub", `{"title":"Mug","specs":"- 1"}`)
	svc, err := NewService(testConfig(), providerMap{"stub": stub}, failingStore{storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	_, err = svc.Generate(context.Background(), &Request{Prompt: "mug"})
	var se *storage.StorageError
	if !errors.As(err, &se) {
		t.Errorf("expected StorageError, got %v", err)
	}
}

func TestService_ExplicitProviderAndModel(t *testing.T) {
	a := providertest.NewStubProvider("a", `{"title":"A","specs":"-"}`)
	b := providertest.NewStubProvider("b", `{"title":"B","specs":"-"}`)
	svc, err := NewService(testConfig(), providerMap{"stub": a, "b": b}, storage.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	gen, err := svc.Generate(context.Background(), &Request{Prompt: "mug", Provider: "b", Model: "custom-model"})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if gen.Provider != "b" || gen.Title != "B" {
		t.Errorf("expected provider b, got %q (%q)", gen.Provider, gen.Title)
	}
	if gen.Model != "custom-model" {
		t.Errorf("expected model custom-model, got %q", gen.Model)
	}
	if len(a.Requests()) != 0 {
		t.Error("expected default provider to be unused")
	}
}

func TestService_GetChecksOwner(t *testing.T) {
	svc, _, _ := newTestService(t, `{"title":"Mug","specs":"- 1"}`)
	ctx := context.Background()

	gen, err := svc.Generate(ctx, &Request{Prompt: "mug", UserID: "alice"})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	tests := []struct {
		name    string
		userID  string
		wantErr bool
	}{
		{"owner", "alice", false},
		{"other user", "bob", true},
		{"anonymous", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, gen.ID, tt.userID)
			if tt.wantErr && !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestService_GetAndList(t *testing.T) {
	svc, _, _ := newTestService(t, `{"title":"Mug","specs":"- 1"}`)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		gen, err := svc.Generate(ctx, &Request{Prompt: fmt.Sprintf("mug %d", i)})
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		ids = append(ids, gen.ID)
	}

	got, err := svc.Get(ctx, ids[1], "")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Prompt != "mug 1" {
		t.Errorf("expected prompt %q, got %q", "mug 1", got.Prompt)
	}

	if _, err := svc.Get(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	page, err := svc.List(ctx, &storage.Query{Limit: 2})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("expected total 3, got %d", page.Total)
	}
	if len(page.Generations) != 2 {
		t.Errorf("expected 2 generations, got %d", len(page.Generations))
	}
}

func TestNewService_Errors(t *testing.T) {
	store := storage.NewMemoryStore()

	if _, err := NewService(testConfig(), nil, store); err == nil {
		t.Error("expected error for nil provider source")
	}
	if _, err := NewService(testConfig(), providerMap{}, nil); err == nil {
		t.Error("expected error for nil store")
	}

	cfg := testConfig()
	cfg.Recovery.BracketMode = "lazy"
	if _, err := NewService(cfg, providerMap{}, store); err == nil {
		t.Error("expected error for unknown bracket mode")
	}

	cfg = testConfig()
	cfg.Recovery.BodyField = "title"
	if _, err := NewService(cfg, providerMap{}, store); err == nil {
		t.Error("expected error for duplicate field names")
	}
}

func TestSystemPrompt(t *testing.T) {
	got := SystemPrompt(recovery.Fields{Primary: "name", Body: "details", Confident: "sure"})
	for _, want := range []string{`"name"`, `"details"`, `"sure"`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected system prompt to contain %s", want)
		}
	}
}
