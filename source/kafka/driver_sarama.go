package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/IBM/sarama"

	"jellyflow/internal/logging"
	"jellyflow/internal/stream"
	"jellyflow/source"
)

// Locator is a parsed kafka://broker[,broker]/topic?partition=N&start=S URL.
type Locator struct {
	Brokers   []string
	Topic     string
	Partition int32
	Start     int64 // sarama.OffsetOldest or an absolute offset
}

func ParseLocator(u *url.URL) (Locator, error) {
	loc := Locator{Start: sarama.OffsetOldest}
	for _, b := range strings.Split(u.Host, ",") {
		if b != "" {
			loc.Brokers = append(loc.Brokers, b)
		}
	}
	loc.Topic = strings.Trim(u.Path, "/")
	if len(loc.Brokers) == 0 || loc.Topic == "" {
		return loc, fmt.Errorf("kafka-source: %q needs brokers and a topic", u.Redacted())
	}
	q := u.Query()
	if p := q.Get("partition"); p != "" {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil || n < 0 {
			return loc, fmt.Errorf("kafka-source: bad partition %q", p)
		}
		loc.Partition = int32(n)
	}
	switch s := q.Get("start"); s {
	case "", "oldest":
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return loc, fmt.Errorf("kafka-source: bad start %q", s)
		}
		loc.Start = n
	}
	return loc, nil
}

// SaramaConfig translates the shared kafka settings.
func SaramaConfig(cfg source.KafkaConfig) (*sarama.Config, error) {
	ver, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.ClientID = cfg.ClientID
	sc.Consumer.Return.Errors = true
	if cfg.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if cfg.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = cfg.SASLUser, cfg.SASLPass
	}
	return sc, nil
}

// Source reads one partition from a start offset up to the high-water mark
// observed at open time. Each message value is one chunk.
type Source struct {
	name    string
	pc      sarama.PartitionConsumer
	errs    <-chan *sarama.ConsumerError
	next    int64 // offset expected next
	end     int64 // exclusive
	closers []func() error
	once    sync.Once
}

// New wraps an already started partition consumer. Messages at or past end
// are never read.
func New(name string, pc sarama.PartitionConsumer, start, end int64, closers ...func() error) *Source {
	return &Source{name: name, pc: pc, errs: pc.Errors(), next: start, end: end, closers: closers}
}

// Open dials the brokers named by u and resolves the offset range.
func Open(u *url.URL, cfg source.Config) (*Source, error) {
	loc, err := ParseLocator(u)
	if err != nil {
		return nil, err
	}
	sc, err := SaramaConfig(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	name := u.Redacted()
	cl, err := sarama.NewClient(loc.Brokers, sc)
	if err != nil {
		return nil, &stream.IOError{Source: name, Err: err}
	}
	start, end, err := offsetRange(cl, loc)
	if err != nil {
		_ = cl.Close()
		return nil, &stream.IOError{Source: name, Err: err}
	}
	cons, err := sarama.NewConsumerFromClient(cl)
	if err != nil {
		_ = cl.Close()
		return nil, &stream.IOError{Source: name, Err: err}
	}
	pc, err := cons.ConsumePartition(loc.Topic, loc.Partition, start)
	if err != nil {
		_ = cons.Close()
		_ = cl.Close()
		return nil, &stream.IOError{Source: name, Err: err}
	}
	logging.L().Info("kafka-source: consuming",
		"topic", loc.Topic, "partition", loc.Partition, "from", start, "to", end)
	return New(name, pc, start, end, cons.Close, cl.Close), nil
}

func offsetRange(cl sarama.Client, loc Locator) (int64, int64, error) {
	oldest, err := cl.GetOffset(loc.Topic, loc.Partition, sarama.OffsetOldest)
	if err != nil {
		return 0, 0, err
	}
	end, err := cl.GetOffset(loc.Topic, loc.Partition, sarama.OffsetNewest)
	if err != nil {
		return 0, 0, err
	}
	start := oldest
	if loc.Start > start {
		start = loc.Start
	}
	if start > end {
		start = end
	}
	return start, end, nil
}

func (s *Source) Name() string { return s.name }

func (s *Source) Next(ctx context.Context) ([]byte, error) {
	for {
		if s.next >= s.end {
			return nil, io.EOF
		}
		select {
		case <-ctx.Done():
			return nil, stream.Cancelled(ctx)
		case cerr, ok := <-s.errs:
			if !ok {
				s.errs = nil
				continue
			}
			return nil, &stream.IOError{Source: s.name, Err: cerr}
		case msg, ok := <-s.pc.Messages():
			if !ok {
				return nil, &stream.IOError{Source: s.name,
					Err: fmt.Errorf("partition closed at offset %d before %d", s.next, s.end)}
			}
			if msg.Offset >= s.end {
				s.next = s.end
				continue
			}
			s.next = msg.Offset + 1
			if len(msg.Value) == 0 {
				continue
			}
			out := make([]byte, len(msg.Value))
			copy(out, msg.Value)
			return out, nil
		}
	}
}

// Close stops the partition consumer and releases the client.
func (s *Source) Close() error {
	var errs []error
	s.once.Do(func() {
		if err := s.pc.Close(); err != nil {
			errs = append(errs, err)
		}
		for _, c := range s.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

func init() {
	source.Register("kafka", func(_ context.Context, u *url.URL, cfg source.Config) (source.ChunkSource, error) {
		return Open(u, cfg)
	})
}
