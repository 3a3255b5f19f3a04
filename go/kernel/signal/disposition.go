package signal

type Disposition int

const (
	Ignore Disposition = iota
	Terminate
	CallHandler
	Stop
)

var dispositionNames = [...]string{"ignore", "terminate", "handler", "stop"}

func (d Disposition) String() string {
	if d >= 0 && int(d) < len(dispositionNames) {
		return dispositionNames[d]
	}
	return "unknown"
}

// DefaultDisposition is what sig does with no handler installed.
func DefaultDisposition(sig Signal) Disposition {
	switch sig {
	case SIGURG, SIGCONT, SIGCHLD, SIGIO, SIGWINCH:
		return Ignore
	case SIGSTOP, SIGTSTP, SIGTTIN, SIGTTOU:
		return Stop
	default:
		return Terminate
	}
}

// Resolve picks what sig does to a process using sh. The caller holds the
// handler set lock. SIGKILL and SIGSTOP always get their default.
func Resolve(sig Signal, sh *Sighand) Disposition {
	if sig.Blockable() && sig.Valid() {
		switch sh.actions[sig].Handler {
		case SIG_IGN:
			return Ignore
		case SIG_DFL:
		default:
			return CallHandler
		}
	}
	return DefaultDisposition(sig)
}
