// Package pids is the registry of live tasks, by pid, thread group, and
// process group.
package pids

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
)

const taskTable = "tasks"

type entry struct {
	Pid    int32
	Tgid   int32
	Pgid   int32
	Leader bool
	Task   *signal.Task
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		taskTable: {
			Name: taskTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "Pid"},
				},
				"tgid": {
					Name:    "tgid",
					Indexer: &memdb.IntFieldIndex{Field: "Tgid"},
				},
				"pgid": {
					Name:    "pgid",
					Indexer: &memdb.IntFieldIndex{Field: "Pgid"},
				},
			},
		},
	},
}

// Table implements signal.PidTable. Lock is the registry lock callers hold
// across a lookup and the signal that follows it.
type Table struct {
	mu sync.Mutex
	db *memdb.MemDB
}

func New() (*Table, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, errors.Wrap(err, "creating pid table")
	}
	return &Table{db: db}, nil
}

func (t *Table) Lock()   { t.mu.Lock() }
func (t *Table) Unlock() { t.mu.Unlock() }

func entryFor(task *signal.Task) *entry {
	return &entry{
		Pid:    task.Pid,
		Tgid:   task.Tgid,
		Pgid:   task.Group.Pgid(),
		Leader: task.Group.Leader == task,
		Task:   task,
	}
}

// Add registers task. Its pid must be free.
func (t *Table) Add(task *signal.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	txn := t.db.Txn(true)
	defer txn.Abort()
	if existing, err := txn.First(taskTable, "id", task.Pid); err != nil {
		return errors.Wrap(err, "pid lookup")
	} else if existing != nil {
		return errors.Errorf("pid %d already registered", task.Pid)
	}
	if err := txn.Insert(taskTable, entryFor(task)); err != nil {
		return errors.Wrapf(err, "registering pid %d", task.Pid)
	}
	txn.Commit()
	return nil
}

// Remove forgets task. Removing an unknown task is a no-op.
func (t *Table) Remove(task *signal.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	txn := t.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(taskTable, "id", task.Pid)
	if err != nil || raw == nil {
		return errors.Wrap(err, "pid lookup")
	}
	if err := txn.Delete(taskTable, raw); err != nil {
		return errors.Wrapf(err, "removing pid %d", task.Pid)
	}
	txn.Commit()
	return nil
}

func (t *Table) lookup(index string, id int32) []*entry {
	txn := t.db.Txn(false)
	it, err := txn.Get(taskTable, index, id)
	if err != nil {
		return nil
	}
	var ret []*entry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		ret = append(ret, raw.(*entry))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Pid < ret[j].Pid })
	return ret
}

func (t *Table) Task(pid int32) *signal.Task {
	raw, err := t.db.Txn(false).First(taskTable, "id", pid)
	if err != nil || raw == nil {
		return nil
	}
	return raw.(*entry).Task
}

// ProcessGroup returns the thread group leaders in pgid.
func (t *Table) ProcessGroup(pgid int32) ([]*signal.Task, bool) {
	var leaders []*signal.Task
	for _, e := range t.lookup("pgid", pgid) {
		if e.Leader {
			leaders = append(leaders, e.Task)
		}
	}
	return leaders, len(leaders) > 0
}

// Threads returns every task in thread group tgid.
func (t *Table) Threads(tgid int32) []*signal.Task {
	entries := t.lookup("tgid", tgid)
	ret := make([]*signal.Task, len(entries))
	for i, e := range entries {
		ret[i] = e.Task
	}
	return ret
}

// Setpgid moves task's whole thread group into process group pgid.
func (t *Table) Setpgid(task *signal.Task, pgid int32) error {
	if pgid <= 0 {
		return errors.Wrapf(common.EINVAL, "setpgid(%d)", pgid)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	txn := t.db.Txn(true)
	defer txn.Abort()
	it, err := txn.Get(taskTable, "tgid", task.Tgid)
	if err != nil {
		return errors.Wrap(err, "thread group lookup")
	}
	var moved []*entry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		e := *raw.(*entry)
		e.Pgid = pgid
		moved = append(moved, &e)
	}
	if len(moved) == 0 {
		return errors.Wrapf(common.ESRCH, "pid %d", task.Pid)
	}
	for _, e := range moved {
		if err := txn.Insert(taskTable, e); err != nil {
			return errors.Wrapf(err, "moving pid %d", e.Pid)
		}
	}
	task.Group.SetPgid(pgid)
	txn.Commit()
	return nil
}

func (t *Table) Len() int {
	it, err := t.db.Txn(false).Get(taskTable, "id")
	if err != nil {
		return 0
	}
	n := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n
}
