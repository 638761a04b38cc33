package llm

import (
	"strings"
	"testing"
)

func TestPromptTemplate(t *testing.T) {
	template, ok := PromptTemplate("v1")
	if !ok {
		t.Fatal("expected v1 to be a known version")
	}
	if strings.TrimSpace(template) == "" {
		t.Fatal("expected embedded template text")
	}

	fallback, ok := PromptTemplate("v99")
	if ok {
		t.Fatal("expected unknown version to be reported")
	}
	if fallback != template {
		t.Fatal("unknown versions must fall back to v1")
	}
}
