// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rc holds the latest pilot channels received over the radio link and
// serves them, interpolated, to the control tick.
package rc

import (
	"math"
	"sync/atomic"
	"time"
)

// Channel indices, zero based.
const (
	ChannelRoll     = 0
	ChannelPitch    = 1
	ChannelThrottle = 2
	ChannelYaw      = 3
	ChannelArm      = 4
	ChannelMode     = 5
	ChannelNavMode  = 6
	ChannelBeacon   = 9

	NumChannels = 16
)

// Channel ranges as delivered by the receiver.
const (
	MinStick    = 988
	MaxStick    = 2012
	MinThrottle = 1000
	MaxThrottle = 2000
	Center      = 1500
)

// numSticks is the count of leading channels that get interpolated.
const numSticks = 4

// Frame is one received channel set plus the one before it. Frames are never
// modified after Push publishes them.
type Frame struct {
	Channels [NumChannels]int32
	Prev     [NumChannels]int32
	At       time.Time
}

// Link is written by one receiving goroutine and read by the control tick.
type Link struct {
	frame    atomic.Pointer[Frame]
	frames   atomic.Uint32
	interval time.Duration
	failsafe time.Duration
}

// NewLink returns an empty link. interval is the nominal frame period used
// for interpolation; failsafe is the frame age after which the link counts
// as lost.
func NewLink(interval, failsafe time.Duration) *Link {
	return &Link{interval: interval, failsafe: failsafe}
}

// Push publishes a new frame received at the given time. Channels outside the
// receiver range are clamped.
func (l *Link) Push(channels [NumChannels]int32, at time.Time) {
	f := &Frame{At: at}
	for i, v := range channels {
		f.Channels[i] = clampChannel(i, v)
	}
	if prev := l.frame.Load(); prev != nil {
		f.Prev = prev.Channels
	} else {
		f.Prev = f.Channels
	}
	l.frame.Store(f)

	if n := l.frames.Load(); n < math.MaxUint32 {
		l.frames.Store(n + 1)
	}
}

// Latest returns the most recent frame, if any.
func (l *Link) Latest() (Frame, bool) {
	f := l.frame.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Frames counts pushed frames and saturates.
func (l *Link) Frames() uint32 { return l.frames.Load() }

// Valid reports whether a frame younger than the failsafe timeout exists.
func (l *Link) Valid(now time.Time) bool {
	f := l.frame.Load()
	return f != nil && now.Sub(f.At) < l.failsafe
}

// Smoothed fills out with the channels as seen at now. The four sticks are
// interpolated between the previous and the latest frame by the time elapsed
// since the latest one, capped at one frame interval; the other channels are
// copied as received. It reports link validity and leaves out untouched when
// no frame has arrived yet.
func (l *Link) Smoothed(now time.Time, out *[NumChannels]int32) bool {
	f := l.frame.Load()
	if f == nil {
		return false
	}
	*out = f.Channels

	interval := l.interval.Microseconds()
	since := now.Sub(f.At).Microseconds()
	if since < 0 {
		since = 0
	}
	if since > interval {
		since = interval
	}
	if interval > 0 {
		for i := 0; i < numSticks; i++ {
			cur, prev := int64(f.Channels[i]), int64(f.Prev[i])
			out[i] = int32((since*cur + (interval-since)*prev) / interval)
		}
	}
	return now.Sub(f.At) < l.failsafe
}

func clampChannel(i int, v int32) int32 {
	lo, hi := int32(MinStick), int32(MaxStick)
	if i == ChannelThrottle {
		lo, hi = MinThrottle, MaxThrottle
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
