package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/field"
)

const (
	hiddenSource = `{% for f in fields %}<input type="hidden" name="{{ f.Name }}" value="{{ f.Value }}">{% endfor %}`
	buttonSource = `<button type="submit" name="{{ button.Name }}" value="{{ button.Value }}">{{ button.Label }}</button>`
	errorsSource = `{% if messages %}<div id="{{ id }}" class="field-error" role="alert">` +
		`{% for m in messages %}<p>{{ m|safe }}</p>{% endfor %}</div>{% endif %}`
)

var (
	templatesOnce sync.Once
	hiddenTpl     *pongo2.Template
	buttonTpl     *pongo2.Template
	errorsTpl     *pongo2.Template

	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

func templates() {
	templatesOnce.Do(func() {
		hiddenTpl = pongo2.Must(pongo2.FromString(hiddenSource))
		buttonTpl = pongo2.Must(pongo2.FromString(buttonSource))
		errorsTpl = pongo2.Must(pongo2.FromString(errorsSource))
	})
}

// RenderHidden renders fields as hidden inputs in the given order.
func RenderHidden(fields []HiddenField) (string, error) {
	templates()
	out, err := hiddenTpl.Execute(pongo2.Context{"fields": fields})
	if err != nil {
		return "", fmt.Errorf("render: hidden fields: %w", err)
	}
	return out, nil
}

// RenderButton renders an intent button.
func RenderButton(button Button) (string, error) {
	templates()
	out, err := buttonTpl.Execute(pongo2.Context{"button": button})
	if err != nil {
		return "", fmt.Errorf("render: button: %w", err)
	}
	return out, nil
}

// RenderErrors renders the error block of a field, referenced by its
// ErrorID. Messages are reduced to plain text. A valid field renders nothing.
func RenderErrors(view field.View) (string, error) {
	messages := make([]string, 0, len(view.Errors))
	for _, msg := range view.Errors {
		if clean := sanitizeMessage(msg); clean != "" {
			messages = append(messages, clean)
		}
	}
	if len(messages) == 0 {
		return "", nil
	}
	templates()
	out, err := errorsTpl.Execute(pongo2.Context{"id": view.ErrorID, "messages": messages})
	if err != nil {
		return "", fmt.Errorf("render: errors for %q: %w", view.Name, err)
	}
	return out, nil
}

// AriaAttributes returns the accessibility attributes a control bound to view
// should carry.
func AriaAttributes(view field.View) map[string]string {
	attrs := map[string]string{"id": view.ID}
	if !view.Valid {
		attrs["aria-invalid"] = "true"
		attrs["aria-describedby"] = view.ErrorID
	}
	return attrs
}

func sanitizeMessage(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(messagePolicy.Sanitize(trimmed))
}
