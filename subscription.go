package variantkit

import "github.com/variantlab/variantkit/pkg/campaign"

// Payload is the merged configuration delivered to subscribers after every
// successful load.
type Payload struct {
	Configs   map[string]any
	Campaigns []campaign.Campaign
	Content   map[string]any
}

// Subscription is the token returned by Subscribe. Unsubscribing does not
// require retaining the original callback.
type Subscription struct {
	id uint64
	c  *Client
}

// Unsubscribe removes the subscriber. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.c == nil {
		return
	}
	s.c.subMu.Lock()
	delete(s.c.subs, s.id)
	s.c.subMu.Unlock()
}

// Subscribe registers fn to be called exactly once per successful
// configuration load, initial and background refresh alike. Callbacks run
// synchronously on the loading goroutine.
func (c *Client) Subscribe(fn func(Payload)) Subscription {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	return Subscription{id: id, c: c}
}

func (c *Client) publish(p Payload) {
	c.subMu.Lock()
	fns := make([]func(Payload), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}
