package messages

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService(t *testing.T) (*MessageService, string) {
	t.Helper()
	db, alice, _ := setupTestDB(t)
	return NewMessageService(NewMessageRepository(db)), alice.ID
}

func TestMessageService_AppendValidation(t *testing.T) {
	svc, senderID := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "empty body",
			body:    "",
			wantErr: ErrEmptyBody,
		},
		{
			name:    "whitespace only",
			body:    "   \t\n  ",
			wantErr: ErrEmptyBody,
		},
		{
			name:    "body too long",
			body:    strings.Repeat("x", MaxBodyLength+1),
			wantErr: ErrBodyTooLong,
		},
		{
			name:    "invalid utf-8",
			body:    string([]byte{0xff, 0xfe}),
			wantErr: ErrBodyInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Append(ctx, senderID, nil, tt.body)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Append() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageService_AppendTrimsBody(t *testing.T) {
	svc, senderID := newTestService(t)

	msg, err := svc.Append(context.Background(), senderID, nil, "  hello  ")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if msg.Body != "hello" {
		t.Errorf("Body = %q, want %q", msg.Body, "hello")
	}
	if msg.ID == 0 {
		t.Error("Append() did not assign an id")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Append() did not assign a timestamp")
	}
	if !msg.IsBroadcast() {
		t.Error("message without recipient should be broadcast")
	}
}

func TestMessageService_PerSenderOrdering(t *testing.T) {
	svc, senderID := newTestService(t)
	ctx := context.Background()

	bodies := []string{"first", "second", "third", "fourth"}
	var ids []int64
	for _, body := range bodies {
		msg, err := svc.Append(ctx, senderID, nil, body)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		ids = append(ids, msg.ID)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("ids not strictly increasing: %v", ids)
		}
	}

	// The log returns them in the order they were sent
	msgs, err := svc.Recent(ctx, senderID, len(bodies))
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	for i, msg := range msgs {
		if msg.Body != bodies[i] {
			t.Errorf("msgs[%d].Body = %q, want %q", i, msg.Body, bodies[i])
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero uses default", limit: 0, want: DefaultHistoryLimit},
		{name: "negative uses default", limit: -5, want: DefaultHistoryLimit},
		{name: "in range", limit: 42, want: 42},
		{name: "above max clamped", limit: 10000, want: MaxHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit); got != tt.want {
				t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}
