package relay

import (
	"testing"
	"time"
)

func TestTopicBuilders(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{TripLocationTopic("t1"), "trip/t1/location"},
		{TripStatusTopic("t1"), "trip/t1/status"},
		{DriverStatusTopic("d1"), "driver/d1/status"},
		{DriverRequestsTopic("d1"), "driver/d1/requests"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("topic = %q, want %q", tc.got, tc.want)
		}
	}
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe("trip/t1/status")
	defer sub.Close()

	b.Publish("trip/t1/status", "accepted")
	b.Publish("trip/t2/status", "other trip, not ours")

	select {
	case msg := <-sub.C:
		if msg.Topic != "trip/t1/status" || msg.Payload != "accepted" {
			t.Fatalf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case msg := <-sub.C:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestPerTopicOrdering(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe("trip/t1/location")
	defer sub.Close()

	for i := 0; i < 10; i++ {
		b.Publish("trip/t1/location", i)
	}
	for i := 0; i < 10; i++ {
		msg := <-sub.C
		if msg.Payload != i {
			t.Fatalf("message %d out of order: got %v", i, msg.Payload)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe("driver/d1/status")
	defer sub.Close()

	// Publish far beyond the buffer without anyone draining. Publish must
	// return; overflow is dropped for this subscriber.
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize*10; i++ {
			b.Publish("driver/d1/status", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}

	if b.Dropped() == 0 {
		t.Fatal("expected dropped messages")
	}
	// What was buffered is still the oldest prefix, in order.
	first := <-sub.C
	if first.Payload != 0 {
		t.Fatalf("first buffered message = %v, want 0", first.Payload)
	}
}

func TestFanOut(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	s1 := b.Subscribe("trip/t1/status")
	s2 := b.Subscribe("trip/t1/status")
	defer s1.Close()
	defer s2.Close()

	if n := b.Subscribers("trip/t1/status"); n != 2 {
		t.Fatalf("Subscribers = %d, want 2", n)
	}

	b.Publish("trip/t1/status", "started")
	for _, sub := range []*Subscription{s1, s2} {
		select {
		case msg := <-sub.C:
			if msg.Payload != "started" {
				t.Fatalf("got %v", msg.Payload)
			}
		case <-time.After(time.Second):
			t.Fatal("fan-out delivery missing")
		}
	}
}

func TestCloseSubscriptionStopsDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe("trip/t1/status")
	sub.Close()
	sub.Close() // idempotent

	if n := b.Subscribers("trip/t1/status"); n != 0 {
		t.Fatalf("Subscribers after close = %d, want 0", n)
	}
	b.Publish("trip/t1/status", "late")
	if _, ok := <-sub.C; ok {
		t.Fatal("received on closed subscription")
	}
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("trip/t1/status")
	b.Close()

	if _, ok := <-sub.C; ok {
		t.Fatal("channel open after broker close")
	}
	// Publish and Subscribe after close are no-ops.
	b.Publish("trip/t1/status", "x")
	late := b.Subscribe("trip/t1/status")
	if _, ok := <-late.C; ok {
		t.Fatal("late subscription received data")
	}
}
