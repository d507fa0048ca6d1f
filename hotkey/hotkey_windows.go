//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procSetWindowsHookExW  = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procGetAsyncKeyState   = user32.NewProc("GetAsyncKeyState")
)

const (
	wmQuit       = 0x0012
	wmHotkey     = 0x0312
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	whKeyboardLL = 13
	modNoRepeat  = 0x4000

	errHotkeyAlreadyRegistered = windows.Errno(1409)
)

type msg struct {
	hwnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       struct{ x, y int32 }
	lPrivate uint32
}

type kbdLLHook struct {
	vkCode    uint32
	scanCode  uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

func register(c Combo, suppress bool, fn func()) (Binding, error) {
	if suppress {
		return registerExclusive(c, fn)
	}
	return passive.add(c, fn)
}

var hotkeyIDs atomic.Int32

// exclusive is a RegisterHotKey hotkey. It owns an OS thread, because
// WM_HOTKEY is delivered to the queue of the thread that registered it.
type exclusive struct {
	threadID uint32
	done     chan struct{}
}

func registerExclusive(c Combo, fn func()) (Binding, error) {
	var (
		id    = hotkeyIDs.Add(1)
		b     = &exclusive{done: make(chan struct{})}
		ready = make(chan error)
	)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(b.done)

		b.threadID = windows.GetCurrentThreadId()
		r, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(c.Modifiers|modNoRepeat), uintptr(c.Key))
		if r == 0 {
			if err == errHotkeyAlreadyRegistered {
				err = ErrConflict
			}
			ready <- fmt.Errorf("registering %s: %w", c, err)
			return
		}
		defer procUnregisterHotKey.Call(0, uintptr(id))
		ready <- nil

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
			if m.message == wmHotkey && m.wParam == uintptr(id) {
				go fn()
			}
		}
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	return b, nil
}

func (b *exclusive) Close() error {
	r, _, err := procPostThreadMessageW.Call(uintptr(b.threadID), wmQuit, 0, 0)
	if r == 0 {
		return fmt.Errorf("stopping hotkey thread: %w", err)
	}
	<-b.done
	return nil
}

// passive is the process-wide low-level keyboard hook. It is installed on
// first use and stays installed; bindings come and go in its table.
var passive = &hook{bindings: map[int]*passiveBinding{}, down: map[uint32]bool{}}

type hook struct {
	mu       sync.Mutex
	started  bool
	nextID   int
	bindings map[int]*passiveBinding
	down     map[uint32]bool
}

type passiveBinding struct {
	id    int
	combo Combo
	fn    func()
}

func (h *hook) add(c Combo, fn func()) (Binding, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		if err := h.start(); err != nil {
			return nil, err
		}
		h.started = true
	}
	h.nextID++
	b := &passiveBinding{id: h.nextID, combo: c, fn: fn}
	h.bindings[b.id] = b
	return closer(func() error {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.bindings, b.id)
		return nil
	}), nil
}

func (h *hook) start() error {
	ready := make(chan error)
	go func() {
		runtime.LockOSThread()

		cb := windows.NewCallback(h.proc)
		r, _, err := procSetWindowsHookExW.Call(whKeyboardLL, cb, 0, 0)
		if r == 0 {
			ready <- fmt.Errorf("installing keyboard hook: %w", err)
			return
		}
		ready <- nil

		// The hook procedure is called from this thread's message loop.
		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
		}
	}()
	return <-ready
}

func (h *hook) proc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		k := (*kbdLLHook)(unsafe.Pointer(lParam))
		switch wParam {
		case wmKeyDown, wmSysKeyDown:
			h.keyDown(k.vkCode)
		case wmKeyUp, wmSysKeyUp:
			h.keyUp(k.vkCode)
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

func (h *hook) keyDown(vk uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.down[vk] {
		return
	}
	h.down[vk] = true

	mods := heldModifiers()
	for _, b := range h.bindings {
		if b.combo.Key == vk && b.combo.Modifiers == mods {
			go b.fn()
		}
	}
}

func (h *hook) keyUp(vk uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.down, vk)
}

func heldModifiers() Modifiers {
	var mods Modifiers
	for _, k := range []struct {
		vk  uintptr
		mod Modifiers
	}{
		{0x11, Ctrl}, {0x12, Alt}, {0x10, Shift}, {0x5B, Win}, {0x5C, Win},
	} {
		r, _, _ := procGetAsyncKeyState.Call(k.vk)
		if r&0x8000 != 0 {
			mods |= k.mod
		}
	}
	return mods
}
