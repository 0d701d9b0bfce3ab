package prompt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
)

func TestTranslateSurveyErr(t *testing.T) {
	if err := translateSurveyErr(fmt.Errorf("ask: %w", terminal.InterruptErr)); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	other := errors.New("boom")
	if err := translateSurveyErr(other); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestInfoWritesLine(t *testing.T) {
	var buf bytes.Buffer
	if err := Survey(&buf).Info(context.Background(), "saved"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if buf.String() != "saved\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Survey(&buf).Info(ctx, "late"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChooseWithoutOptionsSkipsTerminal(t *testing.T) {
	got, err := Survey(nil).Choose(context.Background(), ChoiceConfig{Message: "tags"})
	if err != nil || got != nil {
		t.Fatalf("expected nothing chosen, got %v, %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Survey(nil).Choose(ctx, ChoiceConfig{Message: "tags", Options: []string{"go"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
