package reasoning

import (
	"encoding/json"
	"strings"

	"ai-docreview-be/pkg/llm"
)

const decisionMarker = "DECISION:"

// decisionFilter sits between the model stream and the client-facing
// token handler. It forwards conversational text as it arrives but
// withholds any line that may turn out to be the trailing decision
// line, so the author never sees the machine verdict.
type decisionFilter struct {
	emit llm.TokenHandler

	answer     strings.Builder
	decision   strings.Builder
	pending    []byte
	midLine    bool
	inDecision bool
}

func newDecisionFilter(emit llm.TokenHandler) *decisionFilter {
	return &decisionFilter{emit: emit}
}

func (f *decisionFilter) forward(text string) error {
	if text == "" {
		return nil
	}
	f.answer.WriteString(text)
	if f.emit != nil {
		return f.emit(text)
	}
	return nil
}

func (f *decisionFilter) Write(token string) error {
	var out []byte
	for i := 0; i < len(token); i++ {
		c := token[i]
		if f.inDecision {
			f.decision.WriteByte(c)
			continue
		}
		if f.midLine {
			out = append(out, c)
			if c == '\n' {
				f.midLine = false
			}
			continue
		}

		// At a line start: buffer while the line is still a possible
		// decision marker prefix.
		f.pending = append(f.pending, c)
		switch {
		case c == '\n':
			out = append(out, f.pending...)
			f.pending = f.pending[:0]
		case len(f.pending) == len(decisionMarker):
			if string(f.pending) == decisionMarker {
				f.inDecision = true
				f.decision.WriteString(decisionMarker)
			} else {
				out = append(out, f.pending...)
				f.midLine = true
			}
			f.pending = f.pending[:0]
		case !strings.HasPrefix(decisionMarker, string(f.pending)):
			out = append(out, f.pending...)
			f.pending = f.pending[:0]
			f.midLine = true
		}
	}
	return f.forward(string(out))
}

// Flush releases any buffered bytes once the stream ends. A partial
// marker prefix at end of stream was ordinary text after all.
func (f *decisionFilter) Flush() error {
	if len(f.pending) > 0 && !f.inDecision {
		pending := string(f.pending)
		f.pending = f.pending[:0]
		return f.forward(pending)
	}
	return nil
}

// Answer returns the conversational text forwarded so far, with the
// trailing newline before the decision line trimmed.
func (f *decisionFilter) Answer() string {
	return strings.TrimRight(f.answer.String(), "\n")
}

// Decision parses the withheld decision line. Nil when the model never
// emitted one or the payload does not decode.
func (f *decisionFilter) Decision() *Decision {
	if !f.inDecision {
		return nil
	}
	payload := strings.TrimSpace(strings.TrimPrefix(f.decision.String(), decisionMarker))
	raw, err := extractJSONObject(payload)
	if err != nil {
		return nil
	}
	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil
	}
	return &d
}
