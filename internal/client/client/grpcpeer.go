package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/ftpchat/internal/client/delivery"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
)

const (
	peerServiceName    = "ftpchat.Peer"
	peerExchangeMethod = "/ftpchat.Peer/Exchange"

	notificationBuffer = 256
)

// peerHandler is the handler type registered for the Peer service.
type peerHandler interface {
	exchange(stream grpc.ServerStream) error
}

var peerServiceDesc = grpc.ServiceDesc{
	ServiceName: peerServiceName,
	HandlerType: (*peerHandler)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName: "Exchange",
			Handler: func(srv any, stream grpc.ServerStream) error {
				return srv.(peerHandler).exchange(stream)
			},
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "ftpchat/peer",
}

// frameStream is the part of grpc.ServerStream and grpc.ClientStream the
// peer relies on.
type frameStream interface {
	SendMsg(m any) error
	RecvMsg(m any) error
	Context() context.Context
}

// GRPCPeer is a Messenger that exchanges messages with exactly one remote
// peer over a bidirectional gRPC stream.
type GRPCPeer struct {
	log logging.Logger
	now func() time.Time

	states  chan delivery.Notification
	inbound chan InboundMessage
	done    chan struct{}

	// pending feeds States; control carries acks and displayed receipts.
	pending *fifo[delivery.Notification]
	control *fifo[frame]

	mu      sync.Mutex
	stream  frameStream
	ready   chan struct{}
	closed  bool
	closers []func()

	// inMu is held for reading by senders on inbound and for writing by
	// Close before it closes the channel.
	inMu sync.RWMutex

	// flightMu guards inflight: peer states for a message whose write has
	// not returned yet are held back until its Delivered is queued.
	flightMu sync.Mutex
	inflight map[string][]delivery.Notification

	sendMu sync.Mutex
}

var _ Messenger = (*GRPCPeer)(nil)

func NewGRPCPeer(log logging.Logger) *GRPCPeer {
	p := &GRPCPeer{
		log:      log.With("module", "peer"),
		now:      time.Now,
		states:   make(chan delivery.Notification, notificationBuffer),
		inbound:  make(chan InboundMessage, notificationBuffer),
		done:     make(chan struct{}),
		pending:  newFIFO[delivery.Notification](),
		control:  newFIFO[frame](),
		ready:    make(chan struct{}),
		inflight: map[string][]delivery.Notification{},
	}

	go p.pumpStates()
	go p.pumpControl()
	return p
}

func (p *GRPCPeer) pumpStates() {
	defer close(p.states)
	p.pending.drain(p.done, func(n delivery.Notification) bool {
		select {
		case p.states <- n:
			return true
		case <-p.done:
			return false
		}
	})
}

func (p *GRPCPeer) pumpControl() {
	p.control.drain(p.done, func(f frame) bool {
		if err := p.sendFrame(f); err != nil {
			p.log.Warn(context.Background(), "state frame not sent", "id", f.ID, "state", string(f.State), "error", err)
		}
		return true
	})
}

// Listen accepts a joining peer on addr. It blocks until ctx is done or the
// peer is closed.
func (p *GRPCPeer) Listen(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return p.Serve(ctx, lis)
}

// Serve hosts the Peer service on lis.
func (p *GRPCPeer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	srv.RegisterService(&peerServiceDesc, p)

	if !p.addCloser(srv.Stop) {
		return ErrClosed
	}

	go func() {
		<-ctx.Done()
		p.log.Info(ctx, "shutting down peer server")
		srv.Stop()
	}()

	p.log.Info(ctx, "peer server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Connect joins a hosting peer at target. The stream lives until ctx is done
// or the peer is closed.
func (p *GRPCPeer) Connect(ctx context.Context, target string, opts ...grpc.DialOption) error {
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}

	sctx, cancel := context.WithCancel(ctx)
	stream, err := conn.NewStream(sctx, &peerServiceDesc.Streams[0], peerExchangeMethod)
	if err != nil {
		cancel()
		_ = conn.Close()
		return mapError(err)
	}

	if !p.addCloser(func() {
		cancel()
		_ = conn.Close()
	}) {
		cancel()
		_ = conn.Close()
		return ErrClosed
	}

	if err := p.attach(stream); err != nil {
		return err
	}

	go func() {
		p.receive(sctx, stream)
		p.detach(stream)
	}()

	p.log.Info(ctx, "joined peer", "target", target)
	return nil
}

// WaitReady blocks until a peer stream is attached.
func (p *GRPCPeer) WaitReady(ctx context.Context) error {
	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *GRPCPeer) exchange(stream grpc.ServerStream) error {
	if err := p.attach(stream); err != nil {
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	defer p.detach(stream)

	p.log.Info(stream.Context(), "peer joined")
	p.receive(stream.Context(), stream)
	return nil
}

func (p *GRPCPeer) CreateMessage(text string) Handle {
	return Handle{ID: uuid.NewString(), Text: text}
}

func (p *GRPCPeer) Send(ctx context.Context, h Handle) error {
	p.ReportTransfer(h.ID, models.StateInProgress)

	p.flightMu.Lock()
	p.inflight[h.ID] = nil
	p.flightMu.Unlock()

	err := p.sendFrame(frame{Kind: frameKindMsg, ID: h.ID, Text: h.Text})

	result := models.StateDelivered
	if err != nil {
		p.log.Warn(ctx, "message not sent", "id", h.ID, "error", err)
		result = models.StateNotDelivered
	}

	p.flightMu.Lock()
	held := p.inflight[h.ID]
	delete(p.inflight, h.ID)
	if !p.isClosed() {
		p.pending.push(append([]delivery.Notification{{MessageID: h.ID, State: result}}, held...)...)
	}
	p.flightMu.Unlock()

	return err
}

func (p *GRPCPeer) States() <-chan delivery.Notification {
	return p.states
}

func (p *GRPCPeer) Received() <-chan InboundMessage {
	return p.inbound
}

// ReportTransfer queues a state for id. It never blocks.
func (p *GRPCPeer) ReportTransfer(id string, state models.DeliveryState) {
	if p.isClosed() {
		return
	}
	p.pending.push(delivery.Notification{MessageID: id, State: state})
}

// MarkDisplayed queues a Displayed receipt for the peer. Receipts follow the
// DeliveredToPeer ack of the same message on the wire.
func (p *GRPCPeer) MarkDisplayed(ctx context.Context, id string) error {
	if p.current() == nil {
		return fmt.Errorf("%w: no peer connected", ErrUnavailable)
	}
	p.control.push(frame{Kind: frameKindState, ID: id, State: models.StateDisplayed})
	return nil
}

// Close tears down the stream and the server or client connection, then
// closes States and Received.
func (p *GRPCPeer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	for _, c := range closers {
		c()
	}

	p.inMu.Lock()
	close(p.inbound)
	p.inMu.Unlock()
	return nil
}

func (p *GRPCPeer) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *GRPCPeer) addCloser(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.closers = append(p.closers, fn)
	return true
}

func (p *GRPCPeer) attach(s frameStream) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.stream != nil {
		return ErrPeerBusy
	}
	p.stream = s
	close(p.ready)
	return nil
}

func (p *GRPCPeer) detach(s frameStream) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == s {
		p.stream = nil
		p.ready = make(chan struct{})
	}
}

func (p *GRPCPeer) current() frameStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream
}

func (p *GRPCPeer) sendFrame(f frame) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	s := p.current()
	if s == nil {
		return fmt.Errorf("%w: no peer connected", ErrUnavailable)
	}
	return mapError(s.SendMsg(f.proto()))
}

func (p *GRPCPeer) receive(ctx context.Context, s frameStream) {
	for {
		msg := &structpb.Struct{}
		if err := s.RecvMsg(msg); err != nil {
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
				p.log.Warn(ctx, "peer stream ended", "error", err)
			} else {
				p.log.Info(ctx, "peer stream closed")
			}
			return
		}

		f := frameFromProto(msg)
		switch f.Kind {
		case frameKindMsg:
			p.control.push(frame{Kind: frameKindState, ID: f.ID, State: models.StateDeliveredToPeer})
			if !p.deliver(InboundMessage{ID: f.ID, Text: f.Text, ReceivedAt: p.now()}) {
				return
			}
		case frameKindState:
			if !f.State.Known() {
				p.log.Warn(ctx, "unknown state from peer", "id", f.ID, "state", string(f.State))
				continue
			}
			p.reportRemote(f.ID, f.State)
		default:
			p.log.Warn(ctx, "unknown frame", "kind", f.Kind)
		}
	}
}

// deliver hands m to the Received consumer, waiting for room. It returns
// false once the peer is closed.
func (p *GRPCPeer) deliver(m InboundMessage) bool {
	p.inMu.RLock()
	defer p.inMu.RUnlock()

	if p.isClosed() {
		return false
	}
	select {
	case p.inbound <- m:
		return true
	case <-p.done:
		return false
	}
}

func (p *GRPCPeer) reportRemote(id string, state models.DeliveryState) {
	p.flightMu.Lock()
	defer p.flightMu.Unlock()

	if held, ok := p.inflight[id]; ok {
		p.inflight[id] = append(held, delivery.Notification{MessageID: id, State: state})
		return
	}
	p.ReportTransfer(id, state)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: stream closed", ErrUnavailable)
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
