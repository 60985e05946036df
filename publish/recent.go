// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package publish

import (
	"context"
	"sync"
)

// Recent keeps the last Size messages received.
type Recent struct {
	sync.Mutex
	Size int
	msgs []*Msg
}

func NewRecent(size int) *Recent {
	if size < 1 {
		size = 1
	}
	return &Recent{Size: size}
}

func (r *Recent) Add(msg *Msg) {
	r.Lock()
	defer r.Unlock()
	r.msgs = append(r.msgs, msg)
	if len(r.msgs) > r.Size {
		r.msgs = append([]*Msg(nil), r.msgs[len(r.msgs)-r.Size:]...)
	}
}

// List returns the kept messages, newest last.
func (r *Recent) List() []*Msg {
	r.Lock()
	defer r.Unlock()
	return append([]*Msg(nil), r.msgs...)
}

// Collect adds every message from msgs until the channel closes or ctx is
// done.
func (r *Recent) Collect(ctx context.Context, msgs <-chan *Msg) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			r.Add(msg)
		case <-ctx.Done():
			return
		}
	}
}
