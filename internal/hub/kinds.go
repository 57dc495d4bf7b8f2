package hub

import "tokenrank/internal/model"

// Buffer capacities per the three hub kinds: token subjects get more
// headroom since a hot token can receive swap/chart/balance updates in
// quick succession, while order and new-content subjects update at most
// once per qualifying CDC event.
const (
	TokenBufferSize      = 1000
	OrderBufferSize      = 100
	NewContentBufferSize = 100
)

// Tokens fans TokenMessages out per token id.
type Tokens struct {
	*Hub[string, model.TokenMessage]
}

// NewTokens constructs the token subject hub.
func NewTokens() *Tokens {
	return &Tokens{Hub: New[string, model.TokenMessage](TokenBufferSize)}
}

// Orders fans OrderMessages out per OrderType. Publish is narrowed at the
// hub layer: a subscriber to one OrderType subject only ever receives
// messages for that OrderType, so the protocol layer's order_token-nulling
// step is defensive rather than load-bearing (see DESIGN.md).
type Orders struct {
	*Hub[model.OrderType, model.OrderMessage]
}

// NewOrders constructs the order subject hub.
func NewOrders() *Orders {
	return &Orders{Hub: New[model.OrderType, model.OrderMessage](OrderBufferSize)}
}

// newContentKey is the sole subject key for the NewContent hub: it carries
// no partitioning information, since new-content events fan out to every
// subscriber rather than being scoped to a token or order type.
type newContentKey struct{}

// NewContent fans NewContentMessages out to every subscriber at once.
type NewContent struct {
	*Hub[newContentKey, model.NewContentMessage]
}

// NewNewContent constructs the new-content subject hub.
func NewNewContent() *NewContent {
	return &NewContent{Hub: New[newContentKey, model.NewContentMessage](NewContentBufferSize)}
}

// Subscribe returns a Subscription to the single new-content subject.
func (n *NewContent) Subscribe() *Subscription[newContentKey, model.NewContentMessage] {
	return n.Hub.Subscribe(newContentKey{})
}

// Publish broadcasts msg to every current new-content subscriber.
func (n *NewContent) Publish(msg model.NewContentMessage) bool {
	return n.Hub.Broadcast(newContentKey{}, msg)
}
