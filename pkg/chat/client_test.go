package chat_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/scribeworks/scribe/pkg/chat"
	"github.com/scribeworks/scribe/pkg/session"
	"github.com/scribeworks/scribe/pkg/testutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	var conn *testutil.FakeConn

	newClient := func(opts ...chat.ClientOption) *chat.Client {
		dialer := func(ctx context.Context, endpoint string) (session.Conn, error) {
			return conn, nil
		}
		return chat.NewClient(session.New("wss://test/chat", session.WithDialer(dialer)), opts...)
	}

	request := func() chat.Request {
		return chat.Request{
			History:  []chat.Message{chat.NewUserMessage("what was decided?")},
			Username: "dana",
			Token:    "token-1",
		}
	}

	drain := func(updates <-chan chat.Update) []chat.Update {
		var all []chat.Update
		for update := range updates {
			all = append(all, update)
		}
		return all
	}

	BeforeEach(func() {
		conn = testutil.NewFakeConn()
	})

	It("should stream incremental reconciled views and leave the session reusable", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push("Streaming started.")
			c.Push(`{"answer":[{"partial_answer":"The vote passed","citations":[{"media_name":"council.mp4","timestamp":90}]}]}`)
			c.Push(`{"answer":[{"partial_answer":"The vote passed","citations":[{"media_name":"council.mp4","timestamp":90}]},{"partial_answer":" unanimously","citations":[{"media_name":"council.mp4","timestamp":90.4}]}]}`)
			c.Push(`{"status":"COMPLETE"}`)
		})

		client := newClient()
		updates, err := client.SendMessage(context.Background(), request())
		Expect(err).ToNot(HaveOccurred())

		views := drain(updates)
		Expect(views).To(HaveLen(2))
		Expect(views[0].Err).To(BeNil())
		Expect(views[0].Text).To(Equal("The vote passed[1]"))
		Expect(views[1].Text).To(Equal("The vote passed[1] unanimously[1]"))
		Expect(views[1].Citations).To(HaveLen(1))
		Expect(views[1].Citations[0].MediaName).To(Equal("council.mp4"))

		Expect(client.Session().State()).To(Equal(session.StateReady))
		Expect(conn.WrittenSteps()).To(Equal([]string{"START", "BODY", "END"}))
	})

	It("should fold an incremental batch into the cumulative history", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(`{"answer":[{"partial_answer":"First part.","citations":[]}]}`)
			c.Push(`{"answer":[{"partial_answer":" Second part.","citations":[]}]}`)
			c.Push(`{"status":"COMPLETE"}`)
		})

		views := drainClient(newClient(), request())
		Expect(views[1].Text).To(Equal("First part. Second part."))
	})

	It("should not duplicate rendered text on a diverged replay", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(`{"answer":[{"partial_answer":"one","citations":[]},{"partial_answer":" two","citations":[]}]}`)
			// Replay whose first fragment drifted: neither a prefix of the
			// history nor an extension of it.
			c.Push(`{"answer":[{"partial_answer":"one!","citations":[]},{"partial_answer":" two","citations":[]},{"partial_answer":" three","citations":[]}]}`)
			c.Push(`{"status":"COMPLETE"}`)
		})

		views := drainClient(newClient(), request())
		Expect(views).To(HaveLen(2))
		Expect(views[1].Text).To(Equal("one twoone! three"))
	})

	It("should treat a redelivered snapshot as idempotent", func() {
		snapshot := `{"answer":[{"partial_answer":"Only once.","citations":[{"media_name":"f.mp4","timestamp":5}]}]}`
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(snapshot)
			c.Push(snapshot)
			c.Push(`{"status":"COMPLETE"}`)
		})

		views := drainClient(newClient(), request())
		Expect(views).To(HaveLen(2))
		Expect(views[1].Text).To(Equal("Only once.[1]"))
		Expect(views[1].Citations).To(HaveLen(1))
	})

	It("should surface a server error and fail the session", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(`{"answer":[{"partial_answer":"so far","citations":[]}]}`)
			c.Push(`{"status":"ERROR","reason":"retrieval failed"}`)
		})

		client := newClient()
		updates, err := client.SendMessage(context.Background(), request())
		Expect(err).ToNot(HaveOccurred())

		views := drain(updates)
		last := views[len(views)-1]
		var serverErr *chat.ServerError
		Expect(errors.As(last.Err, &serverErr)).To(BeTrue())
		Expect(serverErr.Reason).To(Equal("retrieval failed"))
		Expect(client.Session().State()).To(Equal(session.StateFailed))
	})

	It("should fail the session on an upstream timeout", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(`{"message":"Endpoint request timed out"}`)
		})

		client := newClient()
		views := drainClient(client, request())
		Expect(errors.Is(views[len(views)-1].Err, chat.ErrTimeout)).To(BeTrue())
		Expect(client.Session().State()).To(Equal(session.StateFailed))
	})

	It("should keep the delivered views when the transport closes mid-stream", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(`{"answer":[{"partial_answer":"first","citations":[]}]}`)
			c.Push(`{"answer":[{"partial_answer":"first","citations":[]},{"partial_answer":" second","citations":[]}]}`)
			c.CloseRemote()
		})

		views := drainClient(newClient(), request())
		Expect(views).To(HaveLen(2))
		for _, view := range views {
			Expect(view.Err).To(BeNil())
		}
		Expect(views[1].Text).To(Equal("first second"))
	})

	It("should release its goroutines when a cancelled consumer walks away", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			// Far more snapshots than the update buffer holds, and no
			// terminal frame, so the stream stays saturated.
			for i := 0; i < 30; i++ {
				c.Push(fmt.Sprintf(`{"answer":[{"partial_answer":"part %d","citations":[]}]}`, i))
			}
		})

		client := newClient()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		before := runtime.NumGoroutine()

		updates, err := client.SendMessage(ctx, request())
		Expect(err).ToNot(HaveOccurred())
		Expect((<-updates).Err).To(BeNil())

		// Cancel, then never read another update.
		cancel()
		client.Session().Disconnect()

		Eventually(runtime.NumGoroutine, 2*time.Second).Should(BeNumerically("<=", before))
	})

	It("should return a connect failure synchronously", func() {
		conn.OnWrite = func(c *testutil.FakeConn, data []byte) {
			c.Push(`{"status":"ERROR"}`)
		}

		client := newClient()
		_, err := client.SendMessage(context.Background(), request())

		var authErr *session.AuthError
		Expect(errors.As(err, &authErr)).To(BeTrue())
	})

	It("should honor strict decoding end to end", func() {
		conn.OnWrite = testutil.AckingServer(func(c *testutil.FakeConn) {
			c.Push(`{"answer":[`)
		})

		client := newClient(chat.WithDecodeMode(chat.DecodeStrict))
		views := drainClient(client, request())

		var malformed *chat.MalformedFrameError
		Expect(errors.As(views[len(views)-1].Err, &malformed)).To(BeTrue())
	})
})

func drainClient(client *chat.Client, req chat.Request) []chat.Update {
	updates, err := client.SendMessage(context.Background(), req)
	Expect(err).ToNot(HaveOccurred())

	var all []chat.Update
	for update := range updates {
		all = append(all, update)
	}
	return all
}
