package habitat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// mockNotifier is a test implementation of Notifier
type mockNotifier struct {
	id          string
	notifyFunc  func(context.Context, CycleEvent) error
	closeFunc   func() error
	notifyCount int
	mu          sync.Mutex
}

func (m *mockNotifier) ID() string   { return m.id }
func (m *mockNotifier) Type() string { return "mock" }
func (m *mockNotifier) Notify(ctx context.Context, event CycleEvent) error {
	m.mu.Lock()
	m.notifyCount++
	m.mu.Unlock()
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, event)
	}
	return nil
}
func (m *mockNotifier) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockNotifier) getNotifyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifyCount
}

func TestNewNotificationManager(t *testing.T) {
	nm := NewNotificationManager()
	if nm == nil {
		t.Fatal("NewNotificationManager returned nil")
	}

	// Test that it's not closed
	notifiers := nm.ListNotifiers()
	if notifiers == nil {
		t.Error("Expected non-nil notifiers list")
	}
	if len(notifiers) != 0 {
		t.Errorf("Expected empty notifiers list, got %d", len(notifiers))
	}

	// Cleanup
	if err := nm.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}

func TestNotificationManager_RegisterNotifier(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	// Test successful registration
	notifier := &mockNotifier{id: "test-1"}
	err := nm.RegisterNotifier(notifier)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Test duplicate registration
	err = nm.RegisterNotifier(&mockNotifier{id: "test-1"})
	if err == nil {
		t.Error("Expected error for duplicate registration")
	}

	// Test nil notifier
	err = nm.RegisterNotifier(nil)
	if err == nil {
		t.Error("Expected error for nil notifier")
	}

	// Test empty ID
	err = nm.RegisterNotifier(&mockNotifier{id: ""})
	if err == nil {
		t.Error("Expected error for empty ID")
	}

	// Test multiple notifiers
	nm.RegisterNotifier(&mockNotifier{id: "test-2"})
	nm.RegisterNotifier(&mockNotifier{id: "test-3"})

	notifiers := nm.ListNotifiers()
	if len(notifiers) != 3 {
		t.Errorf("Expected 3 notifiers, got %d", len(notifiers))
	}
}

func TestNotificationManager_UnregisterNotifier(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	// Test unregistering non-existent notifier
	err := nm.UnregisterNotifier("non-existent")
	if err == nil {
		t.Error("Expected error for non-existent notifier")
	}

	// Test successful unregistration
	notifier := &mockNotifier{id: "test-1"}
	nm.RegisterNotifier(notifier)

	err = nm.UnregisterNotifier("test-1")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Verify it's removed
	_, exists := nm.GetNotifier("test-1")
	if exists {
		t.Error("Expected notifier to be removed")
	}

	// Test unregistration with close error
	closeErr := &mockNotifier{
		id: "test-close-error",
		closeFunc: func() error {
			return &testError{msg: "close error"}
		},
	}
	nm.RegisterNotifier(closeErr)

	err = nm.UnregisterNotifier("test-close-error")
	if err == nil {
		t.Error("Expected error when close fails")
	}
}

func TestNotificationManager_GetNotifier(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	// Test getting non-existent notifier
	_, exists := nm.GetNotifier("non-existent")
	if exists {
		t.Error("Expected notifier not to exist")
	}

	// Test getting existing notifier
	notifier := &mockNotifier{id: "test-1"}
	nm.RegisterNotifier(notifier)

	retrieved, exists := nm.GetNotifier("test-1")
	if !exists {
		t.Error("Expected notifier to exist")
	}
	if retrieved.ID() != "test-1" {
		t.Errorf("Expected ID 'test-1', got '%s'", retrieved.ID())
	}
}

func TestNotificationManager_Enqueue(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	// Test with empty notifier list
	event := CycleEvent{BiomeID: "ocean", Cycle: 1}
	nm.Enqueue(event, []string{})
	// Should not panic or error

	// Test with non-existent notifier (should be handled gracefully)
	nm.Enqueue(event, []string{"non-existent"})
	time.Sleep(50 * time.Millisecond) // Give worker time to process

	// Test with valid notifier
	notifier := &mockNotifier{id: "test-1"}
	nm.RegisterNotifier(notifier)

	nm.Enqueue(event, []string{"test-1"})
	time.Sleep(100 * time.Millisecond) // Give worker time to process

	if notifier.getNotifyCount() != 1 {
		t.Errorf("Expected 1 notification, got %d", notifier.getNotifyCount())
	}

	// Test with closed manager
	nm.Close()
	nm.Enqueue(event, []string{"test-1"})
	// Should not panic
}

func TestNotificationManager_Notify(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	ctx := context.Background()
	event := CycleEvent{BiomeID: "ocean", Cycle: 2}

	// Test with empty notifier list
	err := nm.Notify(ctx, event, []string{})
	if err != nil {
		t.Errorf("Expected no error with empty list, got %v", err)
	}

	// Test with non-existent notifier
	err = nm.Notify(ctx, event, []string{"non-existent"})
	if err == nil {
		t.Error("Expected error for non-existent notifier")
	}

	// Test with valid notifier
	notifier := &mockNotifier{id: "test-1"}
	nm.RegisterNotifier(notifier)

	err = nm.Notify(ctx, event, []string{"test-1"})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if notifier.getNotifyCount() != 1 {
		t.Errorf("Expected 1 notification, got %d", notifier.getNotifyCount())
	}

	// Test with multiple notifiers
	notifier2 := &mockNotifier{id: "test-2"}
	nm.RegisterNotifier(notifier2)

	err = nm.Notify(ctx, event, []string{"test-1", "test-2"})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if notifier.getNotifyCount() != 2 {
		t.Errorf("Expected 2 notifications for notifier1, got %d", notifier.getNotifyCount())
	}
	if notifier2.getNotifyCount() != 1 {
		t.Errorf("Expected 1 notification for notifier2, got %d", notifier2.getNotifyCount())
	}

	// Test with notifier that fails
	failingNotifier := &mockNotifier{
		id: "test-fail",
		notifyFunc: func(ctx context.Context, event CycleEvent) error {
			return &testError{msg: "notification failed"}
		},
	}
	nm.RegisterNotifier(failingNotifier)

	err = nm.Notify(ctx, event, []string{"test-fail"})
	if err == nil {
		t.Error("Expected error when notifier fails")
	}

	// Test with mix of success and failure
	err = nm.Notify(ctx, event, []string{"test-1", "test-fail"})
	if err == nil {
		t.Error("Expected error when one notifier fails")
	}
}

func TestNotificationManager_Close(t *testing.T) {
	nm := NewNotificationManager()

	// Register some notifiers
	notifier1 := &mockNotifier{id: "test-1"}
	notifier2 := &mockNotifier{
		id: "test-2",
		closeFunc: func() error {
			return &testError{msg: "close error"}
		},
	}
	nm.RegisterNotifier(notifier1)
	nm.RegisterNotifier(notifier2)

	// Test close
	err := nm.Close()
	if err == nil {
		t.Error("Expected error when one notifier fails to close")
	}

	// Test double close
	err = nm.Close()
	if err != nil {
		t.Errorf("Expected no error on double close, got %v", err)
	}

	// Test that enqueue doesn't panic after close
	event := CycleEvent{BiomeID: "ocean", Cycle: 3}
	nm.Enqueue(event, []string{"test-1"})
	time.Sleep(50 * time.Millisecond)
}

func TestNewCycleEvent(t *testing.T) {
	result := TickResult{
		CycleComplete: true,
		CycleIndex:    7,
		CycleSummary: []CycleSummaryEntry{
			{ID: "consumer-1", CaughtPrey: true, CaughtPreyCount: 3},
			{ID: "producer-1", WasCaught: true, TimesCaught: 2},
		},
		Organisms: []OrganismUpdate{
			{ID: "consumer-1", Row: 4, Col: 8, Population: 50},
		},
	}

	event := NewCycleEvent("ocean", result)

	if event.EventID == "" {
		t.Error("Expected non-empty event ID")
	}
	if event.BiomeID != "ocean" {
		t.Errorf("Expected biome 'ocean', got '%s'", event.BiomeID)
	}
	if event.Cycle != 7 {
		t.Errorf("Expected cycle 7, got %d", event.Cycle)
	}
	if len(event.Summary) != 2 {
		t.Errorf("Expected 2 summary entries, got %d", len(event.Summary))
	}
	if len(event.Organisms) != 1 {
		t.Errorf("Expected 1 organism update, got %d", len(event.Organisms))
	}
	if event.Timestamp == 0 {
		t.Error("Expected non-zero timestamp")
	}
}

func TestCycleEvent_JSON(t *testing.T) {
	event := CycleEvent{
		EventID:   "evt-1",
		BiomeID:   "rainforest",
		Cycle:     4,
		Timestamp: 1234567890,
		Summary: []CycleSummaryEntry{
			{ID: "rf-consumer-1", CaughtPrey: true, CaughtPreyCount: 1},
		},
	}

	jsonData, err := event.JSON()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(jsonData) == 0 {
		t.Error("Expected non-empty JSON data")
	}

	// Verify it's valid JSON by unmarshaling
	var decoded CycleEvent
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got error: %v", err)
	}

	if decoded.BiomeID != event.BiomeID {
		t.Errorf("Expected BiomeID %s, got %s", event.BiomeID, decoded.BiomeID)
	}
	if decoded.Cycle != event.Cycle {
		t.Errorf("Expected Cycle %d, got %d", event.Cycle, decoded.Cycle)
	}
}

// testError is a simple error implementation for testing
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
