package identity

// Event is the inbound identity-provider envelope. Single-event webhooks
// carry the subject under data.object or user; stream delivery wraps the
// same shape in a list.
type Event struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
	User map[string]any `json:"user"`
}

// Object returns the event subject, wherever the provider put it.
func (e *Event) Object() map[string]any {
	if e.Data != nil {
		if obj, ok := e.Data["object"].(map[string]any); ok {
			return obj
		}
	}

	return e.User
}

const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusIgnored   = "ignored"
	StatusNotFound  = "not_found"
	StatusAccepted  = "accepted"
)

type Result struct {
	Status    string `json:"status"`
	EventType string `json:"event_type,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}

	s, _ := m[key].(string)
	return s
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}

	sub, _ := m[key].(map[string]any)
	return sub
}
