package appmanager

import "time"

// TickDuration is the wall-clock equivalent of one RTOS scheduler tick.
// Every tick-denominated timeout in this package
// is a multiple of this one constant, rather than a scattered magic
// number, so the FreeRTOS-tick-to-wall-time mapping lives in one place.
const TickDuration = 10 * time.Millisecond

// PosterTimeout is the ten ticks a poster blocks for before giving up.
const PosterTimeout = 10 * TickDuration

// StartBlockTimeout is the hundred ticks a Start caller blocks for
// before giving up with ErrQueueFull when the thread queue stays full.
const StartBlockTimeout = 100 * TickDuration

// EventLoopPollInterval is how long the application event loop blocks
// on its queue before looping again.
const EventLoopPollInterval = 1000 * time.Millisecond

// TaskExitGrace is how long the supervisor waits for an outgoing
// application's goroutine to unwind after cancellation before it
// reclaims the arena anyway. An RTOS task delete is immediate and
// unconditional; a goroutine cannot be killed, so the supervisor gives
// it this long and then stops waiting.
const TaskExitGrace = 100 * TickDuration

// EventQueueCapacity is the bounded size of an application's event
// queue.
const EventQueueCapacity = 5

// MessageKind discriminates the three message kinds that traverse the
// event queue.
type MessageKind int

const (
	MsgButton MessageKind = iota
	MsgTick
	MsgQuit
)

// TimeUnits mirrors the tick-service's resolution flags (minute, hour,
// day, ...); the application manager only forwards the value, it never
// interprets it.
type TimeUnits int

// ButtonMessage carries a button click through to the running
// application's callback.
type ButtonMessage struct {
	Callback   func(recognizer any, context any)
	Recognizer any
	Context    any
}

// TickMessage carries a time-service tick through to the running
// application's callback.
type TickMessage struct {
	Callback func(t time.Time, units TimeUnits)
	Time     time.Time
	Units    TimeUnits
}

// Message is the envelope carried on the event queue.
type Message struct {
	Kind   MessageKind
	Button *ButtonMessage
	Tick   *TickMessage
}
