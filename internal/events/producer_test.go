package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("jobs"), WithSource("test"))

			Expect(kp.Write(context.TODO(), "kind1", bytes.NewReader([]byte(`"msg1"`)))).To(Succeed())
			Eventually(w.Len).Should(Equal(1))

			e := w.At(0)
			Expect(e.Context.GetType()).To(Equal("kind1"))
			Expect(e.Source()).To(Equal("test"))
			Expect(w.Topic(0)).To(Equal("jobs"))

			Expect(kp.Write(context.TODO(), "kind2", bytes.NewReader([]byte(`"msg2"`)))).To(Succeed())
			Eventually(w.Len).Should(Equal(2))

			Expect(kp.Close()).To(Succeed())
			Expect(w.Closed()).To(BeTrue())
		})

		It("publishes json payloads", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)
			defer func() { _ = kp.Close() }()

			Expect(kp.Publish(context.TODO(), JobMessageKind, JobEvent{JobID: "job-1", Status: "running"})).To(Succeed())
			Eventually(w.Len).Should(Equal(1))

			var got JobEvent
			Expect(json.Unmarshal(w.At(0).Data(), &got)).To(Succeed())
			Expect(got.JobID).To(Equal("job-1"))
			Expect(got.Status).To(Equal("running"))
		})

		It("keeps going when the writer fails", func() {
			w := newTestWriter()
			w.fail = errors.New("broker down")
			kp := NewEventProducer(w)

			Expect(kp.Publish(context.TODO(), StageMessageKind, StageEvent{Stage: "news"})).To(Succeed())
			Expect(kp.Publish(context.TODO(), StageMessageKind, StageEvent{Stage: "memory"})).To(Succeed())
			Eventually(w.Attempts).Should(Equal(2))

			Expect(kp.Close()).To(Succeed())
		})
	})

	Context("close", func() {
		It("flushes queued events and rejects new ones", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			for i := 0; i < 50; i++ {
				Expect(kp.Publish(context.TODO(), JobMessageKind, JobEvent{JobID: "job"})).To(Succeed())
			}
			Expect(kp.Close()).To(Succeed())
			Expect(w.Len()).To(Equal(50))

			err := kp.Publish(context.TODO(), JobMessageKind, JobEvent{JobID: "late"})
			Expect(err).To(MatchError(ErrProducerClosed))
		})

		It("can be closed twice", func() {
			kp := NewEventProducer(newTestWriter())
			Expect(kp.Close()).To(Succeed())
			Expect(kp.Close()).To(Succeed())
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	messages []cloudevents.Event
	topics   []string
	attempts int
	closed   bool
	fail     error
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.attempts++
	if t.fail != nil {
		return t.fail
	}
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.closed = true
	return nil
}

func (t *testwriter) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.messages)
}

func (t *testwriter) Attempts() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.attempts
}

func (t *testwriter) At(i int) cloudevents.Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.messages[i]
}

func (t *testwriter) Topic(i int) string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.topics[i]
}

func (t *testwriter) Closed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.closed
}
