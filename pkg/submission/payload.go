package submission

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/formpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

// MessagesFromPayload converts a server error payload into an error map keyed
// by field names. Keys may be JSON pointers (`/body/tasks/0/title`), JSONPath
// like (`$.tasks[0].title`) or plain names. Request wrapper segments such as
// `body` or `data` are dropped, and form-level keys (`non_field_errors`,
// `__all__`, ...) map to the form root name "". Messages are trimmed and
// de-duplicated per field.
func MessagesFromPayload(payload map[string][]string) model.ErrorMap {
	out := model.ErrorMap{}
	for raw, messages := range payload {
		name := payloadName(raw)
		for _, text := range normalizeMessages(messages) {
			if !containsText(out[name], text) {
				out.Add(name, model.Text(text))
			}
		}
	}
	return out
}

func payloadName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return ""
	}

	var name string
	switch {
	case strings.HasPrefix(trimmed, "/"), strings.HasPrefix(trimmed, "#/"):
		name = formpath.FromPointer(trimmed)
	default:
		trimmed = strings.TrimPrefix(trimmed, "$")
		name = strings.TrimPrefix(trimmed, ".")
	}

	segments := formpath.Parse(name)
	for len(segments) > 0 && !segments[0].IsIndex() && isWrapper(segments[0].Key()) {
		segments = segments[1:]
	}
	return formpath.Format(segments)
}

func isWrapper(key string) bool {
	switch strings.ToLower(key) {
	case "body", "request", "payload", "data", "attributes":
		return true
	default:
		return false
	}
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(key) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	for _, message := range messages {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsText(msgs model.Messages, text string) bool {
	for _, msg := range msgs {
		if msg.Kind == model.KindMessage && msg.Text == text {
			return true
		}
	}
	return false
}
