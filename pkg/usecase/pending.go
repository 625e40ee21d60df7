package usecase

import "time"

// PendingMessage is a message sent by this client that the server has not
// acknowledged yet
type PendingMessage struct {
	ID      int64     `json:"id"`
	Channel string    `json:"channel"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
}

// Pending tracks outbound frames awaiting their reply. It belongs to one
// session and is only touched under the connection lock.
type Pending struct {
	messages map[int64]*PendingMessage
	pings    map[int64]time.Time
}

func NewPending() *Pending {
	return &Pending{
		messages: make(map[int64]*PendingMessage),
		pings:    make(map[int64]time.Time),
	}
}

func (p *Pending) AddMessage(m *PendingMessage) { p.messages[m.ID] = m }

func (p *Pending) Message(id int64) *PendingMessage { return p.messages[id] }

func (p *Pending) RemoveMessage(id int64) { delete(p.messages, id) }

func (p *Pending) AddPing(id int64, at time.Time) { p.pings[id] = at }

func (p *Pending) RemovePing(id int64) { delete(p.pings, id) }

// TakePing removes the ping and returns when it was sent
func (p *Pending) TakePing(id int64) (time.Time, bool) {
	at, ok := p.pings[id]
	delete(p.pings, id)
	return at, ok
}

// Len returns the number of frames awaiting a reply
func (p *Pending) Len() int { return len(p.messages) + len(p.pings) }
