package signal

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/models"
)

// Sigcontext is the i386 struct sigcontext.
type Sigcontext struct {
	Gs, Gsh, Fs, Fsh, Es, Esh, Ds, Dsh     uint16
	Edi, Esi, Ebp, Esp, Ebx, Edx, Ecx, Eax uint32
	Trapno, Err, Eip                       uint32
	Cs, Csh                                uint16
	Eflags, EspAtSignal                    uint32
	Ss, Ssh                                uint16
	Fpstate, Oldmask, Cr2                  uint32
}

// Sigframe is the frame for handlers installed without SA_SIGINFO.
type Sigframe struct {
	Pretcode  uint32
	Sig       int32
	Sc        Sigcontext
	Fpstate   [112]byte
	Extramask uint32
	Retcode   [8]byte
}

type Ucontext struct {
	Flags    uint32
	Link     uint32
	Stack    StackT
	Mcontext Sigcontext
	Sigmask  SigSet
}

// RtSigframe is the frame for SA_SIGINFO handlers.
type RtSigframe struct {
	Pretcode uint32
	Sig      int32
	Pinfo    uint32
	Puc      uint32
	Info     SigInfo
	Uc       Ucontext
	Retcode  [8]byte
}

const (
	// offsets of Info and Uc in RtSigframe
	rtInfoOffset = 16
	rtUcOffset   = rtInfoOffset + 128
	// offset of Sc in Sigframe
	scOffset = 8
)

var (
	// popl %eax; movl $__NR_sigreturn, %eax; int $0x80
	sigframeRetcode = [8]byte{0x58, 0xb8, 0x77, 0, 0, 0, 0xcd, 0x80}
	// movl $__NR_rt_sigreturn, %eax; int $0x80
	rtSigframeRetcode = [8]byte{0xb8, 0xad, 0, 0, 0, 0xcd, 0x80, 0}
)

// KilledError means the task's process was killed by a signal and guest
// code must not run again.
type KilledError struct {
	Sig Signal
}

func (e *KilledError) Error() string {
	return fmt.Sprintf("killed by %s", e.Sig)
}

var savedRegs = []string{"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp", "eip", "eflags"}
var segmentRegs = []string{"cs", "ss", "ds", "es", "fs", "gs"}

type regFile map[string]uint32

func (t *Task) readRegs(names []string, optional bool) (regFile, error) {
	regs := make(regFile, len(names))
	for _, name := range names {
		enum, ok := t.Arch.Regs[name]
		if !ok {
			if optional {
				continue
			}
			return nil, errors.Errorf("%s has no %s register", t.Arch.Name, name)
		}
		val, err := t.Cpu.RegRead(enum)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		regs[name] = uint32(val)
	}
	return regs, nil
}

func (t *Task) writeRegs(regs regFile) error {
	for name, val := range regs {
		enum, err := t.Arch.Reg(name)
		if err != nil {
			return err
		}
		if err := t.Cpu.RegWrite(enum, uint64(val)); err != nil {
			return errors.Wrapf(err, "writing %s", name)
		}
	}
	return nil
}

func (t *Task) strucAt(addr uint32) *models.StrucStream {
	return models.StrucAt(t.Cpu, t.Arch.Order, uint64(addr))
}

// ReceiveSignals acts on every pending, unblocked signal in arrival order.
// It must be called by the task itself. It reports whether anything was
// received, and returns a KilledError if the process was terminated.
func (t *Task) ReceiveSignals() (bool, error) {
	g := t.Group
	g.mu.Lock(t)
	wasStopped := g.state == JobStopped
	g.mu.Unlock()

	received := false
	sh := t.Sighand
	sh.mu.Lock(t)
	for {
		info, ok := t.dequeue()
		if !ok {
			break
		}
		received = true
		if err := t.receive(sh, info); err != nil {
			// receive released the lock
			return true, err
		}
	}
	sh.mu.Unlock()

	if !wasStopped && g.State() == JobStopped {
		t.notifyParentStopped()
	}
	return received, nil
}

// dequeue pops the first queued signal that is not blocked.
func (t *Task) dequeue() (SigInfo, bool) {
	blocked := t.Blocked()
	for i, info := range t.queue {
		sig := info.Signal()
		if blocked.Has(sig) && sig.Blockable() {
			continue
		}
		t.queue = append(t.queue[:i:i], t.queue[i+1:]...)
		t.pending.Store(uint64(t.Pending() &^ sig.Mask()))
		return info, true
	}
	return SigInfo{}, false
}

func (t *Task) receive(sh *Sighand, info SigInfo) error {
	sig := info.Signal()
	disp := Resolve(sig, sh)
	t.event(t.log().WithFields(logrus.Fields{"sig": sig, "action": disp}), "receiving signal")
	switch disp {
	case Ignore:
		return nil
	case Stop:
		t.Group.stop(t, sig)
		return nil
	case Terminate:
		return t.die(sh, sig)
	}
	if err := t.setupFrame(sh, info); err != nil {
		t.log().WithError(err).WithField("sig", sig).Warn("could not build signal frame")
		return t.die(sh, SIGSEGV)
	}
	return nil
}

// die releases the handler set lock and terminates the process.
func (t *Task) die(sh *Sighand, sig Signal) error {
	sh.mu.Unlock()
	t.event(t.log().WithField("sig", sig), "killed by signal")
	t.sys.exitGroup(t, sig)
	return &KilledError{Sig: sig}
}

func (t *Task) sigcontext(regs regFile, mask SigSet) Sigcontext {
	return Sigcontext{
		Eax: regs["eax"], Ebx: regs["ebx"], Ecx: regs["ecx"], Edx: regs["edx"],
		Esi: regs["esi"], Edi: regs["edi"], Ebp: regs["ebp"],
		Esp: regs["esp"], EspAtSignal: regs["esp"],
		Eip: regs["eip"], Eflags: regs["eflags"],
		Trapno: t.TrapNo,
		Cs:     uint16(regs["cs"]), Ss: uint16(regs["ss"]),
		Ds: uint16(regs["ds"]), Es: uint16(regs["es"]),
		Fs: uint16(regs["fs"]), Gs: uint16(regs["gs"]),
		Oldmask: uint32(mask),
	}
}

// frameSP picks where a frame of size bytes goes: the top of the alternate
// stack when one is set up and not in use, else below the current stack,
// leaving room for extended state and keeping sp+4 16-byte aligned.
func (t *Task) frameSP(sh *Sighand, sp uint32, size int) uint32 {
	if sh.altstack != 0 && !sh.onAltstack {
		sp = sh.altstack + sh.altstackSize
		sh.onAltstack = true
	}
	if xsave := uint32(t.sys.Config.XsaveExtra); xsave != 0 {
		sp -= xsave
		sp &^= 0x3f
		sp -= uint32(t.sys.Config.FxsaveExtra)
	}
	sp -= uint32(size)
	return ((sp + 4) &^ 0xf) - 4
}

func (t *Task) setupFrame(sh *Sighand, info SigInfo) error {
	sig := info.Signal()
	action := sh.actions[sig]
	rt := action.Flags&SA_SIGINFO != 0

	regs, err := t.readRegs(savedRegs, false)
	if err != nil {
		return err
	}
	segs, err := t.readRegs(segmentRegs, true)
	if err != nil {
		return err
	}
	for k, v := range segs {
		regs[k] = v
	}
	oldmask := t.Blocked()
	onAltstack := sh.onAltstack
	altstack := sh.altstackLocked()

	var frame interface{}
	var size int
	var sp, pretcode uint32
	if rt {
		f := &RtSigframe{
			Sig:     int32(sig),
			Info:    info,
			Retcode: rtSigframeRetcode,
			Uc: Ucontext{
				Stack:    altstack,
				Mcontext: t.sigcontext(regs, oldmask),
				Sigmask:  oldmask,
			},
		}
		size, _ = models.Sizeof(f)
		sp = t.frameSP(sh, regs["esp"], size)
		f.Pinfo = sp + rtInfoOffset
		f.Puc = sp + rtUcOffset
		pretcode = t.retaddr(action, "__kernel_rt_sigreturn")
		f.Pretcode = pretcode
		frame = f
	} else {
		f := &Sigframe{
			Sig:       int32(sig),
			Sc:        t.sigcontext(regs, oldmask),
			Extramask: uint32(oldmask >> 32),
			Retcode:   sigframeRetcode,
		}
		size, _ = models.Sizeof(f)
		sp = t.frameSP(sh, regs["esp"], size)
		pretcode = t.retaddr(action, "__kernel_sigreturn")
		f.Pretcode = pretcode
		frame = f
	}
	if err := t.strucAt(sp).Pack(frame); err != nil {
		sh.onAltstack = onAltstack
		return errors.Wrapf(err, "writing frame at 0x%x", sp)
	}

	entry := regFile{"esp": sp, "eip": action.Handler, "eax": uint32(sig)}
	if rt {
		entry["edx"] = sp + rtInfoOffset
		entry["ecx"] = sp + rtUcOffset
	}
	if err := t.writeRegs(entry); err != nil {
		return err
	}

	blocked := oldmask | action.Mask
	if action.Flags&SA_NODEFER == 0 {
		blocked |= sig.Mask()
	}
	t.blocked.Store(uint64(blocked &^ UnblockableMask))
	if action.Flags&SA_RESETHAND != 0 {
		sh.actions[sig].Handler = SIG_DFL
	}
	t.event(t.log().WithFields(logrus.Fields{
		"sig": sig, "handler": fmt.Sprintf("0x%x", action.Handler),
		"sp": fmt.Sprintf("0x%x", sp), "ret": fmt.Sprintf("0x%x", pretcode),
	}), "entering handler")
	return nil
}

func (t *Task) retaddr(action Action, trampoline string) uint32 {
	if action.Flags&SA_RESTORER != 0 {
		return action.Restorer
	}
	return uint32(t.sys.trampoline(trampoline))
}

// notifyParentStopped tells the parent this task's group just stopped.
func (t *Task) notifyParentStopped() {
	pids := t.sys.Pids
	if pids != nil {
		pids.Lock()
		defer pids.Unlock()
	}
	parent := t.Parent
	if parent == nil {
		return
	}
	parent.Group.ChildExit.Notify()
	leader := t.Group.Leader
	if leader == nil {
		leader = t
	}
	info := SigInfo{Code: CLD_STOPPED, Pid: t.Tgid, Uid: t.Uid, Status: t.Group.ExitCode() >> 8}
	if err := Send(t, parent, leader.ExitSignal, info); err != nil {
		t.log().WithError(err).Warn("notifying parent of stop")
	}
}

func (t *Task) restore(sc Sigcontext, mask SigSet) (uint64, error) {
	regs := regFile{
		"eax": sc.Eax, "ebx": sc.Ebx, "ecx": sc.Ecx, "edx": sc.Edx,
		"esi": sc.Esi, "edi": sc.Edi, "ebp": sc.Ebp, "esp": sc.Esp,
		"eip": sc.Eip, "eflags": sc.Eflags,
	}
	if err := t.writeRegs(regs); err != nil {
		return 0, err
	}
	sh := t.Sighand
	sh.mu.Lock(t)
	sh.onAltstack = false
	t.setMaskLocked(SIG_SETMASK, mask)
	sh.mu.Unlock()
	return uint64(sc.Eax), nil
}

func (t *Task) sp() (uint32, error) {
	regs, err := t.readRegs([]string{"esp"}, false)
	if err != nil {
		return 0, err
	}
	return regs["esp"], nil
}

// Sigreturn unwinds a classic frame. By now the handler's ret has popped
// the return address and the trampoline has popped the signal number, so
// the frame starts 8 bytes below esp. It returns the restored eax.
func (t *Task) Sigreturn() (uint64, error) {
	sp, err := t.sp()
	if err != nil {
		return 0, err
	}
	var frame Sigframe
	if err := t.strucAt(sp - scOffset).Unpack(&frame); err != nil {
		return 0, errors.Wrap(common.EFAULT, err.Error())
	}
	return t.restore(frame.Sc, SigSet(frame.Extramask)<<32|SigSet(frame.Sc.Oldmask))
}

// RtSigreturn unwinds an rt frame, which starts 4 bytes below esp.
func (t *Task) RtSigreturn() (uint64, error) {
	sp, err := t.sp()
	if err != nil {
		return 0, err
	}
	var frame RtSigframe
	if err := t.strucAt(sp - 4).Unpack(&frame); err != nil {
		return 0, errors.Wrap(common.EFAULT, err.Error())
	}
	return t.restore(frame.Uc.Mcontext, frame.Uc.Sigmask)
}
