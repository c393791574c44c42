package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[int64][][]byte
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, userID int64, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.sent == nil {
		p.sent = make(map[int64][][]byte)
	}
	p.sent[userID] = append(p.sent[userID], payload)
	return nil
}

func TestSendStoresAndPushes(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	svc := New(store, pub, nil)
	ctx := context.Background()

	saved, err := svc.Send(ctx, 7, notification.Notification{Type: notification.TypeInterview, Message: "invited", JobName: "Go dev"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if saved.ID == 0 || saved.UserID != 7 || saved.Timestamp.IsZero() {
		t.Fatalf("unexpected saved notification %+v", saved)
	}
	if len(pub.sent[7]) != 1 {
		t.Fatalf("expected one push, got %d", len(pub.sent[7]))
	}
	var pushed notification.Notification
	if err := json.Unmarshal(pub.sent[7][0], &pushed); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if pushed.Message != "invited" || pushed.ID != saved.ID {
		t.Fatalf("unexpected push %+v", pushed)
	}

	unread, _ := svc.Unread(ctx, 7)
	if len(unread) != 1 {
		t.Fatalf("expected one unread, got %d", len(unread))
	}
	n, err := svc.MarkAllRead(ctx, 7)
	if err != nil || n != 1 {
		t.Fatalf("mark read: %d %v", n, err)
	}
	unread, _ = svc.Unread(ctx, 7)
	if len(unread) != 0 {
		t.Fatalf("expected none unread, got %d", len(unread))
	}
}

func TestPushFailureKeepsNotification(t *testing.T) {
	store := memory.New()
	svc := New(store, &recordingPublisher{err: errors.New("broker down")}, nil)

	if _, err := svc.Send(context.Background(), 3, notification.Notification{Message: "hello"}); err != nil {
		t.Fatalf("send should not fail on push errors: %v", err)
	}
	unread, _ := svc.Unread(context.Background(), 3)
	if len(unread) != 1 {
		t.Fatalf("expected stored notification, got %d", len(unread))
	}
}
