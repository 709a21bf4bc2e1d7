// Package clock is a small capability used to exercise generated proxies.
// clock_proxy.go is produced by `go generate`.
package clock

//go:generate go run github.com/panagiotisptr/proxychain/cmd/proxygen generate --interface github.com/panagiotisptr/proxychain/example/clock.Clock --package clock --name ClockProxy --output clock_proxy.go

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalidSeconds = errors.New("clock: seconds must be within [0, 59]")

type Clock interface {
	Now(ctx context.Context) (time.Time, error)
	Seconds() int
	SetSeconds(seconds int) error
	Format(layout string, zones ...string) string
	Reset()
}

// Manual is a Clock that only moves when told to.
type Manual struct {
	now time.Time
}

func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	return m.now, nil
}

func (m *Manual) Seconds() int {
	return m.now.Second()
}

func (m *Manual) SetSeconds(seconds int) error {
	if seconds < 0 || seconds > 59 {
		return ErrInvalidSeconds
	}
	m.now = m.now.Add(time.Duration(seconds-m.now.Second()) * time.Second)

	return nil
}

func (m *Manual) Format(layout string, zones ...string) string {
	if len(zones) == 0 {
		return m.now.Format(layout)
	}

	out := make([]string, 0, len(zones))
	for _, z := range zones {
		loc, err := time.LoadLocation(z)
		if err != nil {
			continue
		}
		out = append(out, m.now.In(loc).Format(layout))
	}

	return strings.Join(out, ",")
}

func (m *Manual) Reset() {
	m.now = time.Time{}
}
