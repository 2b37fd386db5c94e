package kafka

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"jellyflow/internal/rdf"
)

func mockDriver(t *testing.T) (*driver, *mocks.AsyncProducer) {
	t.Helper()
	mp := mocks.NewAsyncProducer(t, nil)
	d := &driver{newProducer: func([]string, *sarama.Config) (sarama.AsyncProducer, error) { return mp, nil }}
	if err := d.Configure(Config{Brokers: []string{"b:9092"}, Topic: "quads", Acks: -1}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return d, mp
}

func TestDriver_PublishesRecordText(t *testing.T) {
	d, mp := mockDriver(t)
	q := rdf.Quad{
		Subject:   rdf.NewIRI("http://ex.org/s"),
		Predicate: rdf.NewIRI("http://ex.org/p"),
		Object:    rdf.NewLiteral("o"),
	}
	mp.ExpectInputWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "quads" {
			return errors.New("wrong topic")
		}
		k, _ := m.Key.Encode()
		v, _ := m.Value.Encode()
		if string(k) != q.Subject.String() || string(v) != q.String() {
			return errors.New("wrong key or value")
		}
		return nil
	})
	mp.ExpectInputWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Key != nil {
			return errors.New("text records carry no key")
		}
		return nil
	})

	d.OnRecord(q)
	d.OnRecord("plain line")
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDriver_ConfigureErrors(t *testing.T) {
	d := &driver{newProducer: sarama.NewAsyncProducer}
	if err := d.Configure("x"); err == nil {
		t.Fatal("want type error")
	}
	if err := d.Configure(Config{Topic: "t"}); err == nil {
		t.Fatal("want missing brokers error")
	}
	boom := errors.New("dial")
	d.newProducer = func([]string, *sarama.Config) (sarama.AsyncProducer, error) { return nil, boom }
	if err := d.Configure(Config{Brokers: []string{"b"}, Topic: "t"}); !errors.Is(err, boom) {
		t.Fatalf("want producer error, got %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close without producer: %v", err)
	}
}
