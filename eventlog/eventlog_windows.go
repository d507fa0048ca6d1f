//go:build windows

package eventlog

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	wevtapi          = windows.NewLazySystemDLL("wevtapi.dll")
	procEvtSubscribe = wevtapi.NewProc("EvtSubscribe")
	procEvtNext      = wevtapi.NewProc("EvtNext")
	procEvtRender    = wevtapi.NewProc("EvtRender")
	procEvtClose     = wevtapi.NewProc("EvtClose")
)

const (
	evtSubscribeToFutureEvents = 1
	evtRenderEventXML          = 1
	batchSize                  = 16
)

// subscription uses EvtSubscribe's signal mode: the service sets an event
// when records are available and the subscription's goroutine drains them
// with EvtNext.
type subscription struct {
	handle uintptr
	signal windows.Handle
	stop   windows.Handle
	done   chan struct{}
	once   sync.Once
}

func subscribe(channel, query string, fn func(string)) (Subscription, error) {
	ch, err := windows.UTF16PtrFromString(channel)
	if err != nil {
		return nil, err
	}
	var q *uint16
	if query != "" {
		if q, err = windows.UTF16PtrFromString(query); err != nil {
			return nil, err
		}
	}

	signal, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}
	stop, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		windows.CloseHandle(signal)
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}

	h, _, err := procEvtSubscribe.Call(
		0, uintptr(signal),
		uintptr(unsafe.Pointer(ch)), uintptr(unsafe.Pointer(q)),
		0, 0, 0, evtSubscribeToFutureEvents)
	if h == 0 {
		windows.CloseHandle(signal)
		windows.CloseHandle(stop)
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	s := &subscription{handle: h, signal: signal, stop: stop, done: make(chan struct{})}
	go s.loop(fn)
	return s, nil
}

func (s *subscription) loop(fn func(string)) {
	defer close(s.done)
	for {
		ev, err := windows.WaitForMultipleObjects([]windows.Handle{s.signal, s.stop}, false, windows.INFINITE)
		if err != nil || ev != windows.WAIT_OBJECT_0 {
			return
		}
		windows.ResetEvent(s.signal)
		s.drain(fn)
	}
}

func (s *subscription) drain(fn func(string)) {
	for {
		var (
			events   [batchSize]uintptr
			returned uint32
		)
		r, _, _ := procEvtNext.Call(s.handle, batchSize,
			uintptr(unsafe.Pointer(&events[0])), 0, 0,
			uintptr(unsafe.Pointer(&returned)))
		if r == 0 {
			return
		}
		for _, ev := range events[:returned] {
			xml, err := render(ev)
			procEvtClose.Call(ev)
			if err == nil {
				fn(xml)
			}
		}
	}
}

func render(ev uintptr) (string, error) {
	var used, props uint32
	_, _, err := procEvtRender.Call(0, ev, evtRenderEventXML, 0, 0,
		uintptr(unsafe.Pointer(&used)), uintptr(unsafe.Pointer(&props)))
	if !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) {
		return "", fmt.Errorf("EvtRender: %w", err)
	}

	buf := make([]uint16, used/2+1)
	r, _, err := procEvtRender.Call(0, ev, evtRenderEventXML,
		uintptr(len(buf)*2), uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&used)), uintptr(unsafe.Pointer(&props)))
	if r == 0 {
		return "", fmt.Errorf("EvtRender: %w", err)
	}
	return windows.UTF16ToString(buf), nil
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		windows.SetEvent(s.stop)
		<-s.done
		procEvtClose.Call(s.handle)
		windows.CloseHandle(s.signal)
		windows.CloseHandle(s.stop)
	})
	return nil
}
