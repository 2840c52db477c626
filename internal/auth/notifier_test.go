package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_PublishInOrder(t *testing.T) {
	n := NewNotifier()

	var got []string
	n.Subscribe(func(e Event) { got = append(got, "first:"+e.SessionID) })
	n.Subscribe(func(e Event) { got = append(got, "second:"+e.SessionID) })

	n.Publish(Event{Type: SignedIn, SessionID: "s1"})

	assert.Equal(t, []string{"first:s1", "second:s1"}, got)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier()

	calls := 0
	unsubscribe := n.Subscribe(func(Event) { calls++ })

	n.Publish(Event{Type: SignedIn})
	unsubscribe()
	unsubscribe()
	n.Publish(Event{Type: SignedOut})

	assert.Equal(t, 1, calls)
}
