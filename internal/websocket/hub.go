package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// publishBuffer bounds how many undelivered messages Publish queues before
// it starts dropping them.
const publishBuffer = 256

type envelope struct {
	userID  string
	message []byte
}

type reply struct {
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and delivers messages to the
// clients subscribed to a user.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Messages addressed to a single user's clients.
	publish chan envelope

	// Messages addressed to one client.
	replies chan reply

	// A map of user IDs to the set of clients subscribed to them.
	subscriptions map[string]map[*Client]bool

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		publish:       make(chan envelope, publishBuffer),
		replies:       make(chan reply),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client, client.UserID)
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case env := <-h.publish:
			for client := range h.subscriptions[env.userID] {
				select {
				case client.Send <- env.message:
				default:
					log.Warn().Str("user_id", client.UserID).Msg("Dropping slow websocket client")
					h.drop(client)
				}
			}
		case r := <-h.replies:
			if h.clients[r.client] {
				select {
				case r.client.Send <- r.message:
				default:
					h.drop(r.client)
				}
			}
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Publish queues message for every client subscribed to userID. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) Publish(userID string, message []byte) {
	select {
	case h.publish <- envelope{userID: userID, message: message}:
	default:
		log.Warn().Str("user_id", userID).Msg("Websocket publish queue full, dropping message")
	}
}

// Reply sends message to a single client if it is still registered. Sends
// to clients the hub has already dropped are discarded.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.replies <- reply{client: client, message: message}:
	case <-h.done:
	}
}

// Notify encodes an action and payload and publishes it to userID.
func (h *Hub) Notify(userID, action string, payload interface{}) {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return
	}
	h.Publish(userID, data)
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, userID string) {
	if h.subscriptions[userID] == nil {
		h.subscriptions[userID] = make(map[*Client]bool)
	}
	h.subscriptions[userID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs, ok := h.subscriptions[client.UserID]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.UserID)
	}
}
