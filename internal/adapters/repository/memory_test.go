package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/vmatch/internal/domain/model"
)

func TestMemoryStore_Catalog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithDemoData())
	defer store.Close()

	vols, err := store.ListVolunteers(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vols) != 3 {
		t.Fatalf("expected 3 volunteers, got %d", len(vols))
	}
	if vols[0].ID != 1 || vols[2].Name != "Mason Rivera" {
		t.Errorf("unexpected volunteer order: %+v", vols)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 4 || events[0].ID != 101 || events[3].ID != 104 {
		t.Errorf("unexpected events: %+v", events)
	}

	ev, err := store.GetEvent(ctx, 102)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.RequiredSkills.Contains("Logistics") {
		t.Errorf("expected Logistics in required skills, got %v", ev.RequiredSkills.Slice())
	}

	if _, err := store.GetVolunteer(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetEvent(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.PutEvent(model.Event{ID: 0}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestMemoryStore_RegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	at := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	reg, err := store.Register(ctx, 3, 102, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Status != model.StatusRegistered || !reg.CreatedAt.Equal(at) {
		t.Errorf("unexpected registration: %+v", reg)
	}

	if _, err := store.Register(ctx, 3, 102, at); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if n, _ := store.CountRegistered(ctx, 3, 102); n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}

	ids, err := store.RegisteredEventIDs(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 102 {
		t.Errorf("expected [102], got %v", ids)
	}
}

func TestMemoryStore_CancelAllowsRegisterAgain(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	if err := store.Cancel(ctx, 1, 101); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound cancelling nothing, got %v", err)
	}
	if _, err := store.Register(ctx, 1, 101, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Cancel(ctx, 1, 101); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := store.CountRegistered(ctx, 1, 101); n != 0 {
		t.Errorf("expected count 0 after cancel, got %d", n)
	}
	if _, err := store.Register(ctx, 1, 101, time.Now()); err != nil {
		t.Fatalf("expected re-register to succeed, got %v", err)
	}

	rows := store.Registrations()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Status != model.StatusCancelled || rows[1].Status != model.StatusRegistered {
		t.Errorf("unexpected statuses: %s, %s", rows[0].Status, rows[1].Status)
	}
}

func TestMemoryStore_ConcurrentRegister(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	const goroutines = 50
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Register(ctx, 2, 104, time.Now())
			switch {
			case err == nil:
				wins.Add(1)
			case !errors.Is(err, ErrConflict):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestMemoryStore_Notifications(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	first := model.Notification{ID: "a", UserID: 1, Type: model.NotificationAssignment, Message: "one"}
	second := model.Notification{ID: "b", UserID: 1, Type: model.NotificationReminder, Message: "two"}
	other := model.Notification{ID: "c", UserID: 2, Type: model.NotificationUpdate, Message: "three"}
	for _, n := range []model.Notification{first, second, other} {
		if err := store.CreateNotification(ctx, n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := store.CreateNotification(ctx, first); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate id, got %v", err)
	}

	list, err := store.ListNotifications(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" {
		t.Errorf("expected newest first, got %+v", list)
	}

	n, err := store.MarkNotificationRead(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.IsRead {
		t.Error("expected notification to be read")
	}
	if _, err := store.MarkNotificationRead(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_History(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	e1, err := store.AppendHistory(ctx, model.HistoryEntry{VolunteerID: 1, Description: "sorting", Hours: 2.5, Status: "completed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e1.ID != 1 || e1.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp to be assigned, got %+v", e1)
	}
	if _, err := store.AppendHistory(ctx, model.HistoryEntry{VolunteerID: 2, Description: "photos"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.AppendHistory(ctx, model.HistoryEntry{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}

	all, _ := store.ListHistory(ctx, 0)
	if len(all) != 2 || all[0].VolunteerID != 2 {
		t.Errorf("expected newest first across volunteers, got %+v", all)
	}
	mine, _ := store.ListHistory(ctx, 1)
	if len(mine) != 1 || mine[0].Hours != 2.5 {
		t.Errorf("unexpected history for volunteer 1: %+v", mine)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore(context.Background())
	defer store.Close()
	cancel()

	if _, err := store.Register(ctx, 1, 101, time.Now()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore_MetricsUpdaterStops(t *testing.T) {
	store := NewMemoryStore(context.Background(), WithMetricsUpdateInterval(5*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = store.Close()
		_ = store.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}

func TestMemoryStore_EventAdmin(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithDemoData())
	defer store.Close()

	created, err := store.CreateEvent(ctx, model.Event{Name: "Tree Planting", Location: "Riverside"})
	if err != nil {
		t.Fatalf("CreateEvent() error: %v", err)
	}
	if created.ID != 105 {
		t.Errorf("expected id 105 after the demo catalog, got %d", created.ID)
	}

	created.Location = "Hilltop"
	if _, err := store.UpdateEvent(ctx, created); err != nil {
		t.Fatalf("UpdateEvent() error: %v", err)
	}
	if got, _ := store.GetEvent(ctx, 105); got.Location != "Hilltop" {
		t.Errorf("expected updated location, got %q", got.Location)
	}
	if _, err := store.UpdateEvent(ctx, model.Event{ID: 999}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := store.Register(ctx, 1, 101, time.Now()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, err := store.Register(ctx, 1, 103, time.Now()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := store.DeleteEvent(ctx, 101); err != nil {
		t.Fatalf("DeleteEvent() error: %v", err)
	}
	if _, err := store.GetEvent(ctx, 101); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted event to be gone, got %v", err)
	}
	ids, _ := store.RegisteredEventIDs(ctx, 1)
	if len(ids) != 1 || ids[0] != 103 {
		t.Errorf("expected only 103 to stay registered, got %v", ids)
	}
	if err := store.Cancel(ctx, 1, 103); err != nil {
		t.Errorf("expected the surviving registration to stay indexed, got %v", err)
	}
	if err := store.DeleteEvent(ctx, 101); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_UpdateVolunteer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithDemoData())
	defer store.Close()

	v, _ := store.GetVolunteer(ctx, 2)
	v.City = "Austin"
	if _, err := store.UpdateVolunteer(ctx, v); err != nil {
		t.Fatalf("UpdateVolunteer() error: %v", err)
	}
	if got, _ := store.GetVolunteer(ctx, 2); got.City != "Austin" {
		t.Errorf("expected updated city, got %q", got.City)
	}
	if _, err := store.UpdateVolunteer(ctx, model.Volunteer{ID: 77}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_HistorySummary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithDemoData())
	defer store.Close()

	entries := []model.HistoryEntry{
		{VolunteerID: 1, Description: "Sorting", Hours: 2},
		{VolunteerID: 1, Description: "Packing", Hours: 1.5},
		{VolunteerID: 3, Description: "Driving", Hours: 4},
		{VolunteerID: 2, Description: "Registered", Status: "registered"},
	}
	var last model.HistoryEntry
	for _, e := range entries {
		saved, err := store.AppendHistory(ctx, e)
		if err != nil {
			t.Fatalf("AppendHistory() error: %v", err)
		}
		last = saved
	}

	sum, err := store.HistorySummary(ctx)
	if err != nil {
		t.Fatalf("HistorySummary() error: %v", err)
	}
	if sum.TotalVolunteers != 2 || sum.TotalEntries != 3 || sum.TotalHours != 7.5 {
		t.Errorf("unexpected summary: %+v", sum)
	}

	rows, err := store.VolunteerHistorySummary(ctx)
	if err != nil {
		t.Fatalf("VolunteerHistorySummary() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].Name != "Alex Johnson" || rows[0].EntryCount != 2 || rows[0].TotalHours != 3.5 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].VolunteerID != 3 {
		t.Errorf("expected rows ordered by name, got %+v", rows)
	}

	if err := store.DeleteHistory(ctx, last.ID); err != nil {
		t.Fatalf("DeleteHistory() error: %v", err)
	}
	if err := store.DeleteHistory(ctx, last.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	all, _ := store.ListHistory(ctx, 0)
	if len(all) != 3 {
		t.Errorf("expected 3 entries after delete, got %d", len(all))
	}
}
