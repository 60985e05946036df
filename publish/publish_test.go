// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package publish

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

func testRecord() *event.Record {
	return &event.Record{
		Runtime:       1200,
		Daytime:       "10:00:00",
		Baseline:      400.1234,
		MaxOvenTemp:   850,
		TC:            12.5,
		TCCorrected:   math.NaN(),
		SampleVolume:  0.002,
		SampleCO2:     410,
		Concentration: math.NaN(),
		Truncated:     true,
	}
}

func TestEventMsg(t *testing.T) {
	msg := EventMsg("2019-07-01-1000-eventdata.csv", testRecord(), nil, []byte("body"))
	assert.Equal(t, EventType, msg.Type)
	assert.Equal(t, "2019-07-01-1000-eventdata.csv", msg.Metadata["name"])
	assert.Equal(t, "400.123", msg.Metadata["co2-base"])
	assert.Equal(t, "12.500", msg.Metadata["tc"])
	assert.Equal(t, "-", msg.Metadata["tc-baseline"])
	assert.Equal(t, "0.002", msg.Metadata["volume"])
	assert.Equal(t, "true", msg.Metadata["truncated"])
	assert.NotContains(t, msg.Metadata, "r2")
	assert.Equal(t, []byte("body"), msg.Payload)

	msg = EventMsg("x", testRecord(), &fit.Result{RSquared: 0.99, Peaks: make([]fit.Peak, 2)}, nil)
	assert.Equal(t, "2", msg.Metadata["peaks"])
	assert.Equal(t, "0.9900", msg.Metadata["r2"])
}

func TestPublishSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := Subscribe(ctx, s.Addr(), "tca", nil)
	require.NoError(t, err)

	p := NewRedisPublisher(s.Addr(), "tca")
	defer p.Close()
	require.NoError(t, p.Publish(ctx, EventMsg("a", testRecord(), nil, []byte("payload"))))

	select {
	case msg := <-msgs:
		require.NotNil(t, msg)
		assert.Equal(t, EventType, msg.Type)
		assert.Equal(t, "a", msg.Metadata["name"])
		assert.Equal(t, []byte("payload"), msg.Payload)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	for range msgs {
	}
}

func TestPublishClosedServer(t *testing.T) {
	s := miniredis.RunT(t)
	p := NewRedisPublisher(s.Addr(), "tca")
	defer p.Close()
	s.Close()
	assert.Error(t, p.Publish(context.Background(), &Msg{Type: EventType}))
}

func TestRecent(t *testing.T) {
	r := NewRecent(2)
	in := make(chan *Msg, 3)
	for _, name := range []string{"a", "b", "c"} {
		in <- &Msg{Metadata: map[string]string{"name": name}}
	}
	close(in)
	r.Collect(context.Background(), in)

	got := r.List()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Metadata["name"])
	assert.Equal(t, "c", got[1].Metadata["name"])
}
