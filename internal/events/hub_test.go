package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubDeliversUntilUnsubscribed(t *testing.T) {
	hub := NewHub[string]()

	var first, second []string
	unsubscribe := hub.Subscribe(func(e string) { first = append(first, e) })
	hub.Subscribe(func(e string) { second = append(second, e) })

	hub.Publish("signed_in")
	unsubscribe()
	unsubscribe()
	hub.Publish("signed_out")

	assert.Equal(t, []string{"signed_in"}, first)
	assert.Equal(t, []string{"signed_in", "signed_out"}, second)
}

func TestListenerMayUnsubscribeDuringPublish(t *testing.T) {
	hub := NewHub[int]()

	calls := 0
	var unsubscribe func()
	unsubscribe = hub.Subscribe(func(int) {
		calls++
		unsubscribe()
	})

	hub.Publish(1)
	hub.Publish(2)

	assert.Equal(t, 1, calls)
}
