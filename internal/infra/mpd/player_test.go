package mpd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fhs/gompd/v2/mpd"
)

// MockMPDClient implements queueClient for testing.
type MockMPDClient struct {
	Calls     []string
	AddedURIs []string
	DeletedID int
	NextID    int
	StatusMap mpd.Attrs

	ClearError  error
	AddError    error
	PlayError   error
	StopError   error
	DeleteError error
	CloseError  error
}

func (m *MockMPDClient) Clear() error {
	m.Calls = append(m.Calls, "clear")
	return m.ClearError
}

func (m *MockMPDClient) AddID(uri string) (int, error) {
	m.Calls = append(m.Calls, "addid")
	if m.AddError != nil {
		return 0, m.AddError
	}
	m.AddedURIs = append(m.AddedURIs, uri)
	return m.NextID, nil
}

func (m *MockMPDClient) DeleteID(id int) error {
	m.Calls = append(m.Calls, "deleteid")
	m.DeletedID = id
	return m.DeleteError
}

func (m *MockMPDClient) PlayID(id int) error {
	m.Calls = append(m.Calls, "playid")
	return m.PlayError
}

func (m *MockMPDClient) Stop() error {
	m.Calls = append(m.Calls, "stop")
	return m.StopError
}

func (m *MockMPDClient) Status() (mpd.Attrs, error) {
	m.Calls = append(m.Calls, "status")
	return m.StatusMap, nil
}

func (m *MockMPDClient) Close() error {
	m.Calls = append(m.Calls, "close")
	return m.CloseError
}

func TestPlayerLifecycle(t *testing.T) {
	client := &MockMPDClient{NextID: 42}
	p := newPlayer(client)

	if err := p.Start(context.Background(), "http://hotspot:8000/radio1.mp3"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := p.Release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	want := "clear,addid,playid,stop,deleteid,close"
	if got := strings.Join(client.Calls, ","); got != want {
		t.Errorf("Calls = %s, want %s", got, want)
	}
	if client.DeletedID != 42 {
		t.Errorf("DeletedID = %d, want 42", client.DeletedID)
	}
	if client.AddedURIs[0] != "http://hotspot:8000/radio1.mp3" {
		t.Errorf("AddedURIs = %v", client.AddedURIs)
	}
}

func TestPlayerReleaseIsIdempotent(t *testing.T) {
	client := &MockMPDClient{}
	p := newPlayer(client)

	if err := p.Release(); err != nil {
		t.Fatalf("Release before Start error: %v", err)
	}
	if len(client.Calls) != 0 {
		t.Errorf("Release before Start should not touch MPD, got %v", client.Calls)
	}

	if err := p.Start(context.Background(), "http://hotspot/radio.mp3"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	p.Release()
	calls := len(client.Calls)
	p.Release()
	if len(client.Calls) != calls {
		t.Errorf("Second Release should be a no-op, got %v", client.Calls[calls:])
	}
	if err := p.Stop(); err != nil || len(client.Calls) != calls {
		t.Error("Stop after Release should be a no-op")
	}
}

func TestPlayerStartFailureThenRelease(t *testing.T) {
	client := &MockMPDClient{AddError: errors.New("unsupported URL scheme")}
	p := newPlayer(client)

	err := p.Start(context.Background(), "rtsp://hotspot/radio")
	if !errors.Is(err, client.AddError) {
		t.Fatalf("Expected add error, got %v", err)
	}
	if err := p.Release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	want := "clear,addid,close"
	if got := strings.Join(client.Calls, ","); got != want {
		t.Errorf("Calls = %s, want %s", got, want)
	}
}

func TestPlayerReleaseJoinsErrors(t *testing.T) {
	client := &MockMPDClient{DeleteError: errors.New("no such song"), CloseError: errors.New("broken pipe")}
	p := newPlayer(client)

	if err := p.Start(context.Background(), "http://hotspot/radio.mp3"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	err := p.Release()
	if !errors.Is(err, client.DeleteError) || !errors.Is(err, client.CloseError) {
		t.Errorf("Release should report both errors, got %v", err)
	}
}

func TestPlayerStartCancelled(t *testing.T) {
	client := &MockMPDClient{}
	p := newPlayer(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Start(ctx, "http://hotspot/radio.mp3"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(client.Calls) != 0 {
		t.Errorf("Cancelled Start should not touch MPD, got %v", client.Calls)
	}
}

func TestPlayerStatus(t *testing.T) {
	client := &MockMPDClient{StatusMap: mpd.Attrs{"state": "play", "audio": "44100:16:2"}}
	p := newPlayer(client)

	state, audio, err := p.Status()
	if err != nil || state != "stop" || audio != "" {
		t.Errorf("Status before Start = %q, %q, %v", state, audio, err)
	}

	if err := p.Start(context.Background(), "http://hotspot/radio.mp3"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	state, audio, err = p.Status()
	if err != nil || state != "play" || audio != "44100:16:2" {
		t.Errorf("Status = %q, %q, %v", state, audio, err)
	}
}
