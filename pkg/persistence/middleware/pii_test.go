package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/bake/pkg/adapters/memory"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{`token=\S+`, `\d{3}-\d{2}-\d{4}`})
	if err != nil {
		t.Fatal(err)
	}
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	report := newReport("pii")
	report.Tasks = []domain.TaskResult{
		{Task: "fetch", Status: domain.StatusCompleted},
		{Task: "push", Status: domain.StatusFailed, Error: `command "curl -H token=abc123 host" exited with 7 for 999-99-9999`},
	}

	if err := secureStore.Save(ctx, report); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if report.Tasks[1].Error == "" || report.Tasks[1].Error[0:7] != "command" {
		t.Error("Middleware modified original report in memory!")
	}

	stored, err := underlyingStore.Load(ctx, "pii")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	want := `command "curl -H *** host" exited with 7 for ***`
	if stored.Tasks[1].Error != want {
		t.Errorf("Expected %q, got %q", want, stored.Tasks[1].Error)
	}
	if stored.Tasks[0].Error != "" {
		t.Errorf("Empty errors should stay empty, got %q", stored.Tasks[0].Error)
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected invalid pattern to be rejected")
	}
}

func TestChain_Order(t *testing.T) {
	underlyingStore := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"secret-sauce"})
	if err != nil {
		t.Fatal(err)
	}
	enc := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	store := middleware.Chain(underlyingStore, pii, enc)

	ctx := context.Background()
	if err := store.Save(ctx, newReport("chain")); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "chain")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Tasks[0].Error != middleware.Mask {
		t.Errorf("Expected masking before encryption, got %q", loaded.Tasks[0].Error)
	}
}
