/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package replay

import (
	"time"
)

// tickResolution is how often the driver samples the clock. Finer than any
// sensible step interval, so catch-up emission stays smooth.
const tickResolution = 25 * time.Millisecond

// Driver feeds wall-clock ticks into a Player from its own goroutine. One
// driver per play segment: the controller starts a driver on play and stops
// it on pause, cancel, or completion. The Player's generation counter makes
// a tick from a stopped driver harmless either way.
type Driver struct {
	stop chan struct{}
	done chan struct{}
}

// StartDriver calls p.Start and begins ticking until Stop (or until the
// player stops accepting this generation).
func StartDriver(p *Player) *Driver {
	gen := p.Start(time.Now())
	d := &Driver{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(d.done)
		t := time.NewTicker(tickResolution)
		defer t.Stop()
		for {
			select {
			case <-d.stop:
				return
			case now := <-t.C:
				p.Tick(gen, now)
				if !p.Playing() {
					return
				}
			}
		}
	}()
	return d
}

// Stop halts the ticking goroutine and waits for it to exit.
func (d *Driver) Stop() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
	<-d.done
}
