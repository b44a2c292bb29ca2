package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"go.uber.org/zap"

	"github.com/automoto/battleboxes/logging"
	"github.com/automoto/battleboxes/shared/messages"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedGame
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoinedGame:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

var (
	ErrNotConnected     = errors.New("not connected")
	ErrReportQueueFull  = errors.New("step report queue full")
	ErrJoinRejected     = errors.New("join rejected")
	ErrSessionNotJoined = errors.New("connection closed before the session started")
)

// Sink receives authoritative messages once a session is attached. The
// client calls it from router goroutines, so implementations must be safe
// for concurrent use.
type Sink interface {
	HandleTick(messages.GlobalTick)
	HandleSnapshot(messages.EntitySnapshot)
	HandleDespawn(messages.DespawnEvent)
	// HandleDisconnect is called once the connection is gone; no message
	// follows it.
	HandleDisconnect(err error)
}

// disconnected is queued like any inbound message so it reaches the sink
// after everything received before it.
type disconnected struct {
	err error
}

// Client manages a WebSocket connection to the game server.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	state          ClientState
	lastError      error
	networkID      esync.NetworkId
	reconnectToken string
	serverName     string
	tickRate       float64
	mapID          string
	conn           *websocket.Conn

	// deliverMu orders delivery: it is held while a message is handed to
	// the sink and across the whole replay in Attach.
	deliverMu sync.Mutex
	sink      Sink
	pending   []any // inbound messages received before Attach

	joinCh  chan messages.JoinAccepted // size-1 buffered; latest wins
	initCh  chan messages.SessionInit
	errCh   chan error
	reports chan messages.StepReport

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
}

// NewClient creates a client whose outbound step report queue holds
// reportBuffer entries.
func NewClient(reportBuffer int) *Client {
	if reportBuffer < 1 {
		reportBuffer = 1
	}
	return &Client{
		state:   StateDisconnected,
		joinCh:  make(chan messages.JoinAccepted, 1),
		initCh:  make(chan messages.SessionInit, 1),
		errCh:   make(chan error, 1),
		reports: make(chan messages.StepReport, reportBuffer),
		log:     logging.Named("netclient"),
	}
}

// Connect dials the server in a background goroutine and initiates the join handshake.
func (c *Client) Connect(ctx context.Context, address, version, playerName string) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.cancel = cancel
	token := c.reconnectToken
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		c.log.Infow("connected to server", "address", address)
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		err := c.write(ctx, messages.JoinRequest{
			Version:        version,
			PlayerName:     playerName,
			ReconnectToken: token,
		})
		if err != nil {
			c.setError(fmt.Errorf("send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		c.log.Infow("join accepted", "networkID", msg.NetworkID, "server", msg.ServerName, "tickRate", msg.TickRate, "map", msg.MapID)
		c.mu.Lock()
		c.networkID = msg.NetworkID
		c.reconnectToken = msg.ReconnectToken
		c.serverName = msg.ServerName
		c.tickRate = msg.TickRate
		c.mapID = msg.MapID
		c.state = StateJoinedGame
		c.mu.Unlock()
		pushLatest(c.joinCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		c.log.Warnw("join rejected", "reason", msg.Reason)
		c.setError(fmt.Errorf("%w: %s", ErrJoinRejected, msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.SessionInit) {
		c.log.Debugw("session init", "startStep", msg.StartStep, "resolution", msg.Resolution, "projectileTypes", len(msg.ProjectileHulls))
		pushLatest(c.initCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.GlobalTick) {
		c.dispatch(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.EntitySnapshot) {
		c.dispatch(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.DespawnEvent) {
		c.dispatch(msg)
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		c.handleDisconnect(err)
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		c.log.Warnw("router error", "error", err)
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pump(ctx)
	}()

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

// AwaitSession blocks until the server has accepted the join and sent the
// session parameters.
func (c *Client) AwaitSession(ctx context.Context) (messages.JoinAccepted, messages.SessionInit, error) {
	var join messages.JoinAccepted
	select {
	case join = <-c.joinCh:
	case err := <-c.errCh:
		return join, messages.SessionInit{}, err
	case <-ctx.Done():
		return join, messages.SessionInit{}, ctx.Err()
	}

	select {
	case init := <-c.initCh:
		return join, init, nil
	case err := <-c.errCh:
		return join, messages.SessionInit{}, err
	case <-ctx.Done():
		return join, messages.SessionInit{}, ctx.Err()
	}
}

// Attach routes inbound authoritative messages to sink, first replaying the
// ones that arrived before it was attached. Messages dispatched during the
// replay wait for it to finish.
func (c *Client) Attach(sink Sink) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	for _, msg := range c.pending {
		deliver(sink, msg)
	}
	c.pending = nil
	c.sink = sink
}

func (c *Client) dispatch(msg any) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	if c.sink == nil {
		c.pending = append(c.pending, msg)
		return
	}
	deliver(c.sink, msg)
}

func deliver(sink Sink, msg any) {
	switch m := msg.(type) {
	case messages.GlobalTick:
		sink.HandleTick(m)
	case messages.EntitySnapshot:
		sink.HandleSnapshot(m)
	case messages.DespawnEvent:
		sink.HandleDespawn(m)
	case disconnected:
		sink.HandleDisconnect(m.err)
	}
}

func (c *Client) handleDisconnect(err error) {
	c.log.Infow("disconnected", "error", err)
	c.mu.Lock()
	if c.state != StateError {
		c.state = StateDisconnected
	}
	c.conn = nil
	c.mu.Unlock()

	pushLatest(c.errCh, ErrSessionNotJoined)
	if err == nil {
		err = ErrNotConnected
	}
	c.dispatch(disconnected{err: err})
}

// Report queues a step report for sending. It never blocks the simulation:
// when the queue is full the report is dropped.
func (c *Client) Report(msg messages.StepReport) error {
	select {
	case c.reports <- msg:
		return nil
	default:
		return ErrReportQueueFull
	}
}

func (c *Client) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.reports:
			if err := c.write(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Debugw("step report dropped", "step", msg.Step, "error", err)
			}
		}
	}
}

func (c *Client) write(ctx context.Context, msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(ctx, websocket.MessageBinary, payload)
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.state = StateDisconnected
	c.conn = nil
	c.cancel = nil
	c.mu.Unlock()

	c.deliverMu.Lock()
	c.sink = nil
	c.pending = nil
	c.deliverMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) NetworkID() esync.NetworkId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.networkID
}

func (c *Client) MapID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mapID
}

func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName
}

func (c *Client) TickRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
	pushLatest(c.errCh, err)
}

// pushLatest replaces whatever is buffered in a size-1 channel.
func pushLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
