package core

// TaskStart is the state every task begins in.
const TaskStart = -1

// Task is a periodic state machine. Tick receives the current state and
// returns the next one; the scheduler stores it between calls.
type Task struct {
	Name   string
	Period uint32 // microseconds; 0 runs the task once
	State  int
	Tick   func(state int) int

	WakeTime uint32
	Next     *Task
}

// Scheduler runs tasks cooperatively from the main loop, earliest wake
// time first.
type Scheduler struct {
	clock Clock
	list  *Task
}

// NewScheduler creates an empty scheduler reading time from clock.
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Add schedules t one period from now, starting in TaskStart.
func (s *Scheduler) Add(t *Task) {
	t.State = TaskStart
	t.WakeTime = s.clock.Micros() + t.Period

	state := disableInterrupts()
	defer restoreInterrupts(state)
	s.insert(t)
}

// Remove unschedules t. It is a no-op if t is not scheduled.
func (s *Scheduler) Remove(t *Task) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.list == t {
		s.list = t.Next
		t.Next = nil
		return
	}
	for cur := s.list; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// Len returns the number of scheduled tasks.
func (s *Scheduler) Len() int {
	n := 0
	for cur := s.list; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// before reports whether a is earlier than b on the wrapping clock.
func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// insert keeps the list sorted by WakeTime
func (s *Scheduler) insert(t *Task) {
	if s.list == nil || before(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	cur := s.list
	for cur.Next != nil && !before(t.WakeTime, cur.Next.WakeTime) {
		cur = cur.Next
	}
	t.Next = cur.Next
	cur.Next = t
}

// Dispatch runs every task whose wake time has passed and returns how
// many ticks ran. Periodic tasks are rescheduled one period after their
// previous wake time so the cadence does not drift.
func (s *Scheduler) Dispatch() int {
	now := s.clock.Micros()
	ran := 0

	for {
		state := disableInterrupts()
		t := s.list
		if t == nil || before(now, t.WakeTime) {
			restoreInterrupts(state)
			return ran
		}
		s.list = t.Next
		t.Next = nil
		restoreInterrupts(state)

		t.State = t.Tick(t.State)
		ran++

		if t.Period == 0 {
			continue
		}
		t.WakeTime += t.Period
		if before(t.WakeTime, now) {
			// fell behind by more than a period; skip missed ticks
			t.WakeTime = now + t.Period
		}
		state = disableInterrupts()
		s.insert(t)
		restoreInterrupts(state)
	}
}

// NextWake returns the earliest wake time, if any task is scheduled.
func (s *Scheduler) NextWake() (uint32, bool) {
	if s.list == nil {
		return 0, false
	}
	return s.list.WakeTime, true
}
