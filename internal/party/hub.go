package party

type roomOp struct {
	partyID string
	client  *Client
	channel string
}

type roomMessage struct {
	partyID string
	payload []byte
}

type directMessage struct {
	channel string
	payload []byte
}

// Hub owns the mapping from party id to the clients that joined that party's
// broadcast group, plus an index of every open connection by channel handle.
// All state is confined to the Run goroutine; callers talk to it through
// channels, so operations from one goroutine are applied in order.
type Hub struct {
	rooms     map[string]map[*Client]bool
	byChannel map[string]*Client

	register   chan *Client
	unregister chan *Client
	joins      chan roomOp
	leaves     chan roomOp
	room       chan roomMessage
	direct     chan directMessage
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		byChannel:  make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joins:      make(chan roomOp),
		leaves:     make(chan roomOp),
		room:       make(chan roomMessage),
		direct:     make(chan directMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.byChannel[c.channel] = c

		case c := <-h.unregister:
			if _, ok := h.byChannel[c.channel]; ok {
				h.drop(c)
			}

		case op := <-h.joins:
			if h.byChannel[op.client.channel] != op.client {
				// Dropped (or replaced) since the join was issued; adding it
				// back would fan out onto a closed send channel.
				continue
			}
			clients, ok := h.rooms[op.partyID]
			if !ok {
				clients = make(map[*Client]bool)
				h.rooms[op.partyID] = clients
			}
			clients[op.client] = true

		case op := <-h.leaves:
			c, ok := h.byChannel[op.channel]
			if !ok {
				continue
			}
			if clients, ok := h.rooms[op.partyID]; ok {
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.rooms, op.partyID)
				}
			}

		case msg := <-h.room:
			for c := range h.rooms[msg.partyID] {
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer; its storage row is cleaned up by its
					// own disconnect path.
					h.drop(c)
				}
			}

		case msg := <-h.direct:
			c, ok := h.byChannel[msg.channel]
			if !ok {
				// Recipient already gone. Delivery is fire-and-forget.
				continue
			}
			select {
			case c.send <- msg.payload:
			default:
				h.drop(c)
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.byChannel, c.channel)
	for partyID, clients := range h.rooms {
		if clients[c] {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, partyID)
			}
		}
	}
	// Closing send lets the write pump flush queued frames and then close
	// the connection itself.
	close(c.send)
}

// Register indexes a freshly upgraded connection by its channel handle.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister drops the connection from its rooms and closes it. Frames
// already queued on the send channel are still flushed by the write pump.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Join adds the connection to a party's broadcast group.
func (h *Hub) Join(partyID string, c *Client) {
	h.joins <- roomOp{partyID: partyID, client: c}
}

// Leave removes the connection with the given channel handle from a party's
// broadcast group. Unknown handles are ignored.
func (h *Hub) Leave(partyID, channel string) {
	h.leaves <- roomOp{partyID: partyID, channel: channel}
}

// SendRoom fans a payload out to every member of the party's group. A nil
// payload (a frame that failed to marshal) is discarded rather than delivered
// as an empty message.
func (h *Hub) SendRoom(partyID string, payload []byte) {
	if payload == nil {
		return
	}
	h.room <- roomMessage{partyID: partyID, payload: payload}
}

// SendTo delivers a payload to one specific connection by channel handle. Nil
// payloads are discarded, like SendRoom.
func (h *Hub) SendTo(channel string, payload []byte) {
	if payload == nil {
		return
	}
	h.direct <- directMessage{channel: channel, payload: payload}
}
