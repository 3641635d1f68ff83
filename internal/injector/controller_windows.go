//go:build windows && 386

// This controller targets 32-bit PvZ builds and therefore only builds
// for GOARCH=386: GetThreadContext's CONTEXT layout (and the Eip field
// the entry-reach poll reads) is the calling process's own bitness, and
// reading a 32-bit child's context from a 64-bit controller needs the
// separate Wow64GetThreadContext API, which this package does not
// implement (spec's ABI assumptions, §6, are for a 32-bit target only).

package injector

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/lawnforge/pvzloader/internal/pe"
)

// platformHandles holds the OS handles owned exclusively by a Session
// (spec §3: "All OS handles are owned exclusively by the session").
type platformHandles struct {
	process windows.Handle
	thread  windows.Handle
	tid     uint32
}

func (c *Controller) launchStalled(exePath string) (*Session, error) {
	if _, err := os.Stat(exePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExeNotFound, exePath)
	}

	img, err := pe.ParseFile(exePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExeMalformed, err)
	}
	entryPoint := img.EntryPoint()

	wPath, err := windows.UTF16PtrFromString(exePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessCreateFailed, err)
	}

	si := new(windows.StartupInfo)
	si.Cb = uint32(unsafe.Sizeof(*si))
	si.Flags = windows.STARTF_USESTDHANDLES
	si.StdInput = windows.Handle(os.Stdin.Fd())
	si.StdOutput = windows.Handle(os.Stdout.Fd())
	si.StdErr = windows.Handle(os.Stderr.Fd())

	// The game resolves its archive by a bare relative filename (the
	// pointer patch_pakfile_pointer installs), so the child's working
	// directory must be the executable's own directory regardless of
	// where this controller itself was launched from.
	wDir, err := windows.UTF16PtrFromString(filepath.Dir(exePath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessCreateFailed, err)
	}

	pi := new(windows.ProcessInformation)
	err = windows.CreateProcess(
		wPath,
		nil,
		nil,
		nil,
		true,
		windows.CREATE_SUSPENDED,
		nil,
		wDir,
		si,
		pi,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessCreateFailed, err)
	}

	s := &Session{
		Pid:        pi.ProcessId,
		EntryPoint: entryPoint,
		state:      StateStalled,
		handles: platformHandles{
			process: pi.Process,
			thread:  pi.Thread,
			tid:     pi.ThreadId,
		},
	}

	var original [2]byte
	if err := readProcessMemory(s.handles.process, uintptr(entryPoint), original[:]); err != nil {
		cleanupFailedLaunch(s)
		return nil, fmt.Errorf("%w: %v", ErrEntryReadFailed, err)
	}
	s.originalCode = original

	if err := writeProcessMemory(s.handles.process, uintptr(entryPoint), stallStub[:]); err != nil {
		cleanupFailedLaunch(s)
		return nil, fmt.Errorf("%w: %v", ErrEntryPatchFailed, err)
	}

	if _, err := windows.ResumeThread(s.handles.thread); err != nil {
		cleanupFailedLaunch(s)
		return nil, fmt.Errorf("%w: %v", ErrProcessCreateFailed, err)
	}

	if err := c.pollUntilAtEntry(s); err != nil {
		cleanupFailedLaunch(s)
		return nil, err
	}

	if _, err := windows.SuspendThread(s.handles.thread); err != nil {
		cleanupFailedLaunch(s)
		return nil, fmt.Errorf("%w: %v", ErrThreadQueryFailed, err)
	}

	return s, nil
}

// pollUntilAtEntry blocks until the primary thread's instruction
// pointer equals the entry point, confirming the OS loader has
// finished and the thread is parked in the EB FE stub (spec §4.2 step
// 6). Bounded per spec §9's redesign item — an unbounded poll hangs
// the controller if the child never reaches its entry point.
func (c *Controller) pollUntilAtEntry(s *Session) error {
	var ctx windows.Context
	ctx.ContextFlags = windows.CONTEXT_CONTROL

	for i := 0; i < c.Config.iterations(); i++ {
		if err := windows.GetThreadContext(s.handles.thread, &ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrThreadQueryFailed, err)
		}
		if uint32(ctx.Eip) == s.EntryPoint {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ErrEntryReachTimeout
}

func cleanupFailedLaunch(s *Session) {
	_ = windows.TerminateProcess(s.handles.process, 1)
	_ = windows.CloseHandle(s.handles.thread)
	_ = windows.CloseHandle(s.handles.process)
}

func (c *Controller) injectLibrary(s *Session, dllPath string) error {
	abs, err := filepath.Abs(dllPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathCanonicalizeFailed, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathCanonicalizeFailed, err)
	}
	wPath, err := windows.UTF16FromString(canonical)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathCanonicalizeFailed, err)
	}

	byteLen := len(wPath) * 2
	remoteAddr, err := virtualAllocEx(s.handles.process, byteLen)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteAllocFailed, err)
	}

	buf := make([]byte, byteLen)
	for i, ch := range wPath {
		buf[2*i] = byte(ch)
		buf[2*i+1] = byte(ch >> 8)
	}
	if err := writeProcessMemory(s.handles.process, remoteAddr, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWriteFailed, err)
	}

	kernel32, err := windows.GetModuleHandle("kernel32.dll")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteThreadFailed, err)
	}
	loadLibraryW, err := windows.GetProcAddress(kernel32, "LoadLibraryW")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteThreadFailed, err)
	}

	thread, _, err := createRemoteThread(s.handles.process, loadLibraryW, remoteAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteThreadFailed, err)
	}
	defer windows.CloseHandle(thread)

	if _, err := windows.WaitForSingleObject(thread, windows.INFINITE); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteThreadFailed, err)
	}
	return nil
}

func (c *Controller) patchPakfilePointer(s *Session, pakfileName string) error {
	narrow := append([]byte(pakfileName), 0)
	remoteAddr, err := virtualAllocEx(s.handles.process, len(narrow))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteAllocFailed, err)
	}
	if err := writeProcessMemory(s.handles.process, remoteAddr, narrow); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWriteFailed, err)
	}

	var addrBuf [4]byte
	addrBuf[0] = byte(remoteAddr)
	addrBuf[1] = byte(remoteAddr >> 8)
	addrBuf[2] = byte(remoteAddr >> 16)
	addrBuf[3] = byte(remoteAddr >> 24)

	if err := writeProcessMemory(s.handles.process, uintptr(c.Config.PakPointerAddress), addrBuf[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWriteFailed, err)
	}
	return nil
}

func (c *Controller) release(s *Session) error {
	if err := writeProcessMemory(s.handles.process, uintptr(s.EntryPoint), s.originalCode[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreWriteFailed, err)
	}
	if _, err := windows.ResumeThread(s.handles.thread); err != nil {
		return fmt.Errorf("%w: %v", ErrResumeFailed, err)
	}
	s.state = StateReleased
	_ = windows.CloseHandle(s.handles.thread)
	_ = windows.CloseHandle(s.handles.process)
	return nil
}

func readProcessMemory(process windows.Handle, addr uintptr, dst []byte) error {
	var n uintptr
	return windows.ReadProcessMemory(process, addr, &dst[0], uintptr(len(dst)), &n)
}

func writeProcessMemory(process windows.Handle, addr uintptr, src []byte) error {
	var n uintptr
	return windows.WriteProcessMemory(process, addr, &src[0], uintptr(len(src)), &n)
}

func virtualAllocEx(process windows.Handle, size int) (uintptr, error) {
	addr, err := windows.VirtualAllocEx(
		process,
		0,
		uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE,
		windows.PAGE_EXECUTE_READWRITE,
	)
	if err != nil {
		return 0, err
	}
	return addr, nil
}

func createRemoteThread(process windows.Handle, startAddr uintptr, arg uintptr) (windows.Handle, uint32, error) {
	var tid uint32
	h, err := windows.CreateRemoteThread(process, nil, 0, startAddr, arg, 0, &tid)
	if err != nil {
		return 0, 0, err
	}
	return h, tid, nil
}
