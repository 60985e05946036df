// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package publish sends event results to downstream consumers over Redis
// pub/sub.
package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

// EventType marks a message carrying one event result with its artifact as
// payload.
const EventType = "tca.event"

type Msg struct {
	Type     string
	Metadata map[string]string
	Payload  []byte
}

type Publisher interface {
	Publish(ctx context.Context, msg *Msg) error
}

func PublishJsonMsg(ctx context.Context, client *redis.Client, channel string, msg *Msg) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return client.Publish(ctx, channel, string(msgBytes)).Err()
}

// EventMsg builds the message for one processed event. The fit result may
// be nil.
func EventMsg(name string, rec *event.Record, r *fit.Result, payload []byte) *Msg {
	f := func(v float64) string { return artifact.FormatFloat(v, 3) }
	md := map[string]string{
		"name":          name,
		"daytime":       rec.Daytime,
		"runtime":       artifact.FormatFloat(rec.Runtime, -1),
		"co2-base":      f(rec.Baseline),
		"maxtemp":       f(rec.MaxOvenTemp),
		"tc":            f(rec.TC),
		"tc-baseline":   f(rec.TCCorrected),
		"volume":        artifact.FormatFloat(rec.SampleVolume, -1),
		"sample-co2":    f(rec.SampleCO2),
		"concentration": f(rec.Concentration),
		"truncated":     strconv.FormatBool(rec.Truncated),
	}
	if r != nil {
		md["peaks"] = strconv.Itoa(len(r.Peaks))
		md["r2"] = artifact.FormatFloat(r.RSquared, 4)
	}
	return &Msg{Type: EventType, Metadata: md, Payload: payload}
}

// RedisPublisher publishes JSON encoded messages on a single channel.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

func NewRedisPublisher(addr, channel string) *RedisPublisher {
	return &RedisPublisher{
		Client:  redis.NewClient(&redis.Options{Addr: addr}),
		Channel: channel,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, msg *Msg) error {
	return PublishJsonMsg(ctx, p.Client, p.Channel, msg)
}

func (p *RedisPublisher) Close() error {
	return p.Client.Close()
}

// Subscribe listens on channel until ctx is done. The subscription is
// confirmed before Subscribe returns. Messages that do not decode are
// dropped.
func Subscribe(ctx context.Context, addr, channel string, logger *slog.Logger) (<-chan *Msg, error) {
	if logger == nil {
		logger = slog.Default()
	}

	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	sub := redisClient.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		redisClient.Close()
		return nil, err
	}

	msgs := make(chan *Msg)
	go func() {
		defer close(msgs)
		defer redisClient.Close()
		defer sub.Close()

		logger.Info("listening for events", "channel", channel)
		defer logger.Info("done listening for events", "channel", channel)

		in := sub.Channel(redis.WithChannelSize(10))
		for {
			select {
			case m, ok := <-in:
				if !ok {
					return
				}
				var msg Msg
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					logger.Warn("dropping undecodable message", "channel", channel, "error", err)
					continue
				}
				select {
				case msgs <- &msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgs, nil
}
