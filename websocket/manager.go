package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Envelope is the wire shape of every server-to-client event. Recipients is
// only used between instances and never sent to browsers.
type Envelope struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Recipients []string        `json:"recipients,omitempty"`
}

// delivery is a queued event. A non-nil client restricts it to that one
// connection.
type delivery struct {
	env    Envelope
	client *Client
}

// Bridge relays envelopes between server instances.
type Bridge interface {
	Publish(ctx context.Context, data []byte) error
	Subscribe(ctx context.Context, handle func(data []byte)) error
}

// Manager owns the set of connected clients, keyed by user id. A single
// goroutine (Start) mutates the registry.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
	bridge     Bridge

	mu    sync.RWMutex
	count int
}

func NewManager(bridge Bridge) *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		bridge:     bridge,
	}
}

// Start runs the registry loop until ctx is done. It must be called once.
func (m *Manager) Start(ctx context.Context) {
	defer close(m.done)

	if m.bridge != nil {
		go func() {
			err := m.bridge.Subscribe(ctx, func(data []byte) {
				var env Envelope
				if err := json.Unmarshal(data, &env); err != nil {
					log.Warn().Err(err).Msg("dropping malformed bridged event")
					return
				}
				m.enqueue(env)
			})
			if err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("event bridge stopped")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return

		case client := <-m.register:
			set, ok := m.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				m.clients[client.userID] = set
			}
			set[client] = struct{}{}
			m.setCount(1)
			log.Debug().Str("userId", client.userID).Int("clients", m.ConnectedClients()).Msg("websocket client registered")

		case client := <-m.unregister:
			m.remove(client)
			log.Debug().Str("userId", client.userID).Int("clients", m.ConnectedClients()).Msg("websocket client unregistered")

		case d := <-m.deliver:
			m.dispatch(d)
		}
	}
}

func (m *Manager) dispatch(d delivery) {
	env := d.env
	data, err := json.Marshal(Envelope{Type: env.Type, Payload: env.Payload})
	if err != nil {
		log.Error().Err(err).Str("type", env.Type).Msg("marshal websocket event")
		return
	}

	send := func(set map[*Client]struct{}) {
		for client := range set {
			select {
			case client.send <- data:
			default:
				// Slow consumer; drop it rather than stall everyone else.
				m.remove(client)
			}
		}
	}

	if d.client != nil {
		if set, ok := m.clients[d.client.userID]; ok {
			if _, ok := set[d.client]; ok {
				send(map[*Client]struct{}{d.client: {}})
			}
		}
		return
	}
	if len(env.Recipients) == 0 {
		for _, set := range m.clients {
			send(set)
		}
		return
	}
	for _, uid := range env.Recipients {
		send(m.clients[uid])
	}
}

// add hands a new connection to the registry loop. It reports false once the
// manager has stopped.
func (m *Manager) add(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) drop(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) remove(client *Client) {
	set, ok := m.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	m.setCount(-1)
	if len(set) == 0 {
		delete(m.clients, client.userID)
	}
}

func (m *Manager) closeAll() {
	for _, set := range m.clients {
		for client := range set {
			m.remove(client)
		}
	}
}

func (m *Manager) setCount(delta int) {
	m.mu.Lock()
	m.count += delta
	m.mu.Unlock()
}

func (m *Manager) ConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Publish sends an event to the named users, or to everyone when none are
// given. With a bridge configured the event goes through it so that clients
// on other instances receive it too.
func (m *Manager) Publish(eventType string, payload interface{}, recipients ...primitive.ObjectID) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("marshal event payload")
		return
	}
	env := Envelope{Type: eventType, Payload: raw}
	for _, r := range recipients {
		env.Recipients = append(env.Recipients, r.Hex())
	}

	if m.bridge != nil {
		data, err := json.Marshal(env)
		if err == nil {
			if err = m.bridge.Publish(context.Background(), data); err == nil {
				return
			}
		}
		log.Warn().Err(err).Str("type", eventType).Msg("event bridge publish failed, delivering locally")
	}
	m.enqueue(env)
}

func (m *Manager) enqueue(env Envelope) {
	m.queue(delivery{env: env})
}

func (m *Manager) queue(d delivery) {
	select {
	case m.deliver <- d:
	default:
		log.Warn().Str("type", d.env.Type).Msg("websocket delivery queue full, dropping event")
	}
}
