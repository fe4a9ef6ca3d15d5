package models

import "testing"

func TestWebhookPayloadKind(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	cases := []struct {
		name    string
		payload WebhookPayload
		want    EventKind
	}{
		{
			name: "inbound message",
			payload: WebhookPayload{
				Event: EventMessageIn,
				Data:  &MessageData{FromNumber: "555", Body: "hola"},
			},
			want: EventInbound,
		},
		{
			name: "inbound without body is ignored",
			payload: WebhookPayload{
				Event: EventMessageIn,
				Data:  &MessageData{FromNumber: "555"},
			},
			want: EventUnknown,
		},
		{
			name: "inbound without sender is ignored",
			payload: WebhookPayload{
				Event: EventMessageIn,
				Data:  &MessageData{Body: "hola"},
			},
			want: EventUnknown,
		},
		{
			name:    "outbound message",
			payload: WebhookPayload{Event: EventMessageOut},
			want:    EventOutbound,
		},
		{
			name:    "unrelated event",
			payload: WebhookPayload{Event: "chat:update"},
			want:    EventUnknown,
		},
		{
			name:    "inbound with nil data",
			payload: WebhookPayload{Event: EventMessageIn},
			want:    EventUnknown,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.payload.Kind(); got != tc.want {
				t.Errorf("Kind() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("follow-up requires the explicit flag", func(t *testing.T) {
		p := WebhookPayload{Event: EventMessageIn, Data: &MessageData{FromNumber: "555", Body: "hola"}}
		if p.IsFollowUpMessage() {
			t.Error("missing meta counted as follow-up")
		}
		p.Data.Meta = &MessageMeta{IsFirstMessage: boolPtr(false)}
		if !p.IsFollowUpMessage() {
			t.Error("explicit false not counted as follow-up")
		}
		p.Data.Meta.IsFirstMessage = boolPtr(true)
		if p.IsFollowUpMessage() {
			t.Error("first message counted as follow-up")
		}
	})
}
