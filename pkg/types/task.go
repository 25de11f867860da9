package types

// TaskStatus is the progress state of a Task.
type TaskStatus string

// Task statuses.
const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// validTaskStatuses is the set of recognized task statuses.
var validTaskStatuses = map[TaskStatus]bool{
	TaskPending:    true,
	TaskInProgress: true,
	TaskCompleted:  true,
}

// Valid reports whether s is a recognized status.
func (s TaskStatus) Valid() bool {
	return validTaskStatuses[s]
}

// Task is the smallest unit of work.
type Task struct {
	Stamp  `yaml:",inline"`
	Name   string     `json:"name" yaml:"name"`
	Status TaskStatus `json:"status" yaml:"status"`
}

// TaskInput creates a Task. An empty Status defaults to pending.
type TaskInput struct {
	Name   string     `json:"name" yaml:"name"`
	Status TaskStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// TaskUpdate is a partial Task.
type TaskUpdate struct {
	Name   *string     `json:"name,omitempty" yaml:"name,omitempty"`
	Status *TaskStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

func (in TaskInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	if in.Status != "" && !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (u TaskUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return ErrInvalidName
	}
	if u.Status != nil && !u.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// NewTask builds the entity for a create call.
func NewTask(s Stamp, in TaskInput) Task {
	status := in.Status
	if status == "" {
		status = TaskPending
	}
	return Task{Stamp: s, Name: in.Name, Status: status}
}

// Apply returns t with the provided fields of u merged in.
func (t Task) Apply(u TaskUpdate) Task {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	return t
}

// Clone returns a copy. Tasks hold no reference lists.
func (t Task) Clone() Task { return t }
