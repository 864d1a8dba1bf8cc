// Package job implements the FIFO job queue that drives promise reactions
// and module evaluation jobs (spec §4.10). Each job carries an opaque ID
// and a name for host-facing diagnostics; jobs queued while the
// queue is draining are processed in the same pass.
package job

import "github.com/google/uuid"

// Job is one queued unit of work. Run executes the job's body; a non-nil
// error is handled by whatever enqueued the job (a promise reaction job
// rejects its promise, a module job reports through a host hook).
type Job struct {
	ID   string
	Name string // diagnostic label, e.g. "promise reaction" or "module evaluation"
	Run  func() error
}

// New builds a Job with a fresh ID.
func New(name string, run func() error) Job {
	return Job{ID: uuid.NewString(), Name: name, Run: run}
}

// Queue is a FIFO job queue (spec §4.10). The zero value is ready to use.
type Queue struct {
	jobs []Job
}

// Enqueue appends j to the back of the queue.
func (q *Queue) Enqueue(j Job) {
	q.jobs = append(q.jobs, j)
}

// Len reports the number of jobs currently queued.
func (q *Queue) Len() int { return len(q.jobs) }

// Drain runs jobs in FIFO order until the queue is empty, including jobs
// enqueued by a job's own Run during this call (spec §4.10: "new jobs
// queued during draining are processed in the same pass"). The first error
// returned by a job's Run is recorded and draining continues; Drain itself
// returns the first such error once the queue empties, matching a host
// hook's "report and keep going" policy for job-level failures.
func (q *Queue) Drain() error {
	var firstErr error
	for len(q.jobs) > 0 {
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		if err := j.Run(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
