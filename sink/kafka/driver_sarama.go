package kafka

import (
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"jellyflow/internal/logging"
	"jellyflow/internal/rdf"
	"jellyflow/sink"
)

type Config struct {
	Brokers []string `yaml:"brokers" toml:"brokers"`
	Topic   string   `yaml:"topic" toml:"topic"`
	Acks    int16    `yaml:"required_acks" toml:"required_acks"` // 0,1,-1
}

type producerFunc func(brokers []string, sc *sarama.Config) (sarama.AsyncProducer, error)

// driver publishes one message per record: the record text as value and,
// for quads, the subject as key so a subject's statements share a partition.
type driver struct {
	cfg         Config
	p           sarama.AsyncProducer
	newProducer producerFunc

	wg   sync.WaitGroup
	once sync.Once
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return fmt.Errorf("kafka-sink: brokers and topic are required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Errors = true
	var err error
	if d.p, err = d.newProducer(cfg.Brokers, sc); err != nil {
		return err
	}
	d.wg.Add(1)
	go d.logErrors()
	return nil
}

func (d *driver) OnRecord(rec any) {
	msg := &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Value: sarama.StringEncoder(fmt.Sprint(rec)),
	}
	if q, ok := rec.(rdf.Quad); ok {
		msg.Key = sarama.StringEncoder(q.Subject.String())
	}
	d.p.Input() <- msg
}

func (d *driver) logErrors() {
	defer d.wg.Done()
	for err := range d.p.Errors() {
		logging.L().Error("kafka-sink: publish failed", "topic", d.cfg.Topic, "err", err.Err)
	}
}

func (d *driver) Close() error {
	var err error
	d.once.Do(func() {
		if d.p == nil {
			return
		}
		err = d.p.Close()
		d.wg.Wait()
	})
	return err
}

func init() {
	sink.Register("kafka", func() sink.Adapter { return &driver{newProducer: sarama.NewAsyncProducer} })
}
