package signal

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
)

// Kill sends sig on behalf of current. pid 0 is current's process group, a
// negative pid is the process group -pid.
func Kill(current *Task, pid int32, sig Signal) error {
	return kill(current, pid, sig, 0, SI_USER)
}

// Tgkill sends sig to thread tid, which must belong to thread group tgid.
func Tgkill(current *Task, tgid, tid int32, sig Signal) error {
	if tgid <= 0 || tid <= 0 {
		return errors.Wrapf(common.EINVAL, "tgkill(%d, %d)", tgid, tid)
	}
	return kill(current, tid, sig, tgid, SI_TKILL)
}

// Tkill sends sig to thread tid.
func Tkill(current *Task, tid int32, sig Signal) error {
	if tid <= 0 {
		return errors.Wrapf(common.EINVAL, "tkill(%d)", tid)
	}
	return kill(current, tid, sig, 0, SI_TKILL)
}

func kill(current *Task, pid int32, sig Signal, tgid int32, code int32) error {
	if sig < 0 || sig > NSIG {
		return errors.Wrapf(common.EINVAL, "kill(%d, %d)", pid, sig)
	}
	current.event(current.log().WithFields(logrus.Fields{"target": pid, "sig": sig}), "kill")
	info := SigInfo{Code: code, Pid: current.Pid, Uid: current.Uid}
	pids := current.sys.Pids
	if pid == 0 {
		pid = -current.Group.Pgid()
	}
	if pid < 0 {
		return SendGroup(current, pids, -pid, sig, info)
	}

	pids.Lock()
	defer pids.Unlock()
	target := pids.Task(pid)
	if target == nil {
		return errors.Wrapf(common.ESRCH, "pid %d", pid)
	}
	if tgid != 0 && target.Tgid != tgid {
		return errors.Wrapf(common.ESRCH, "pid %d not in thread group %d", pid, tgid)
	}
	return Send(current, target, sig, info)
}
