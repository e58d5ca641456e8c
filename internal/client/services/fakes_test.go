package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ftpchat/internal/client/client"
	"github.com/dmitrijs2005/ftpchat/internal/client/delivery"
	"github.com/dmitrijs2005/ftpchat/internal/client/history"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
	"github.com/dmitrijs2005/ftpchat/internal/transfer"
)

// memServer is an in-memory file server reachable through transfer.Dialer.
type memServer struct {
	mu      sync.Mutex
	files   map[string][]byte
	dials   int
	dialErr func(n int) error
	// storeErr returns an error for the given remote path on the given store
	// call (1-based).
	storeErr func(n int, remotePath string) error
	stores   int
}

func newMemServer() *memServer {
	return &memServer{files: map[string][]byte{}}
}

func (s *memServer) dialer() transfer.Dialer {
	return transfer.DialerFunc(func(ctx context.Context, creds models.ServerCredentials) (transfer.Conn, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dials++
		if s.dialErr != nil {
			if err := s.dialErr(s.dials); err != nil {
				return nil, err
			}
		}
		return &memServerConn{s: s}, nil
	})
}

func (s *memServer) dialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func (s *memServer) storeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores
}

func (s *memServer) put(name string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = b
}

type memServerConn struct {
	s *memServer
}

func (c *memServerConn) Store(ctx context.Context, remotePath string, r io.Reader) error {
	c.s.mu.Lock()
	c.s.stores++
	n := c.s.stores
	storeErr := c.s.storeErr
	c.s.mu.Unlock()

	if storeErr != nil {
		if err := storeErr(n, remotePath); err != nil {
			return err
		}
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.s.put(remotePath, b)
	return nil
}

func (c *memServerConn) Retrieve(ctx context.Context, remotePath string, w io.Writer) error {
	c.s.mu.Lock()
	b, ok := c.s.files[remotePath]
	c.s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: 550 %s", transfer.ErrRemoteRejected, remotePath)
	}
	_, err := w.Write(b)
	return err
}

func (c *memServerConn) List(ctx context.Context, remoteDir string) ([]string, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	names := make([]string, 0, len(c.s.files))
	for k := range c.s.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (c *memServerConn) Close() error { return nil }

func newTestTransfer(t *testing.T, srv *memServer) (TransferService, TransferSettings) {
	t.Helper()
	settings := TransferSettings{
		RemoteDir:   "",
		DownloadDir: filepath.Join(t.TempDir(), "downloads"),
		AppDir:      filepath.Join(t.TempDir(), "app"),
	}
	factory := func() Session {
		return transfer.NewSession(srv.dialer(), logging.Discard(), transfer.WithConnectTimeout(time.Second))
	}
	return NewTransferService(factory, settings, logging.Discard()), settings
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// fakeMessenger is an in-process client.Messenger. Send reports InProgress
// followed by Delivered, or NotDelivered when failSend is set.
type fakeMessenger struct {
	mu        sync.Mutex
	seq       int
	sent      []client.Handle
	displayed []string
	history   map[string][]models.DeliveryState
	failSend  error

	states  chan delivery.Notification
	inbound chan client.InboundMessage
	closed  bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		history: map[string][]models.DeliveryState{},
		states:  make(chan delivery.Notification, 64),
		inbound: make(chan client.InboundMessage, 8),
	}
}

func (m *fakeMessenger) CreateMessage(text string) client.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return client.Handle{ID: fmt.Sprintf("m%d", m.seq), Text: text}
}

func (m *fakeMessenger) Send(ctx context.Context, h client.Handle) error {
	m.ReportTransfer(h.ID, models.StateInProgress)

	m.mu.Lock()
	failSend := m.failSend
	if failSend == nil {
		m.sent = append(m.sent, h)
	}
	m.mu.Unlock()

	if failSend != nil {
		m.ReportTransfer(h.ID, models.StateNotDelivered)
		return failSend
	}
	m.ReportTransfer(h.ID, models.StateDelivered)
	return nil
}

func (m *fakeMessenger) States() <-chan delivery.Notification { return m.states }

func (m *fakeMessenger) Received() <-chan client.InboundMessage { return m.inbound }

func (m *fakeMessenger) ReportTransfer(id string, state models.DeliveryState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.history[id] = append(m.history[id], state)
	m.states <- delivery.Notification{MessageID: id, State: state}
}

func (m *fakeMessenger) MarkDisplayed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displayed = append(m.displayed, id)
	return nil
}

func (m *fakeMessenger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.states)
		close(m.inbound)
	}
	return nil
}

func (m *fakeMessenger) statesOf(id string) []models.DeliveryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.DeliveryState(nil), m.history[id]...)
}

func (m *fakeMessenger) sentHandles() []client.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]client.Handle(nil), m.sent...)
}

func (m *fakeMessenger) displayedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.displayed...)
}

type fakeView struct {
	mu      sync.Mutex
	renders []history.Rendering
	marks   map[string][]models.DeliveryState
	notices []string
}

func newFakeView() *fakeView {
	return &fakeView{marks: map[string][]models.DeliveryState{}}
}

func (v *fakeView) Render(ctx context.Context, r history.Rendering) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders = append(v.renders, r)
}

func (v *fakeView) Mark(ctx context.Context, id string, state models.DeliveryState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.marks[id] = append(v.marks[id], state)
}

func (v *fakeView) Notice(ctx context.Context, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, text)
}

func (v *fakeView) noticeList() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

func (v *fakeView) renderList() []history.Rendering {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]history.Rendering(nil), v.renders...)
}

func (v *fakeView) marksOf(id string) []models.DeliveryState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.DeliveryState(nil), v.marks[id]...)
}
