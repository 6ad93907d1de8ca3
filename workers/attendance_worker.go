package workers

import (
	"log"
	"sync"

	"github.com/classattend/attendancebackend/services"
)

// SessionJob is one queued attendance session awaiting processing
type SessionJob struct {
	SessionID string
	Photos    []string
}

// AttendanceProcessor owns the single-worker session queue. One worker
// means at most one session is being processed at any instant, so the
// roster read path and session status writes are never raced.
type AttendanceProcessor struct {
	JobQueue chan SessionJob
	Service  *services.AttendanceService
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex
}

// NewAttendanceProcessor starts the worker goroutine and returns the
// processor
func NewAttendanceProcessor(service *services.AttendanceService, queueSize int) *AttendanceProcessor {
	if queueSize <= 0 {
		queueSize = 32
	}
	proc := &AttendanceProcessor{
		JobQueue: make(chan SessionJob, queueSize),
		Service:  service,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
	}
	proc.Wg.Add(1)
	go proc.worker()
	log.Printf("Started attendance session worker with queue size %d", queueSize)
	return proc
}

// worker drains the queue one session at a time
func (ap *AttendanceProcessor) worker() {
	defer ap.Wg.Done()

	log.Println("Attendance worker started")
	for {
		select {
		case job, ok := <-ap.JobQueue:
			if !ok {
				log.Println("Attendance worker stopping: job queue closed")
				return
			}

			log.Printf("Worker: processing attendance session %s (%d photos)", job.SessionID, len(job.Photos))
			ap.Service.ProcessSession(job.SessionID, job.Photos)

			ap.Mutex.Lock()
			delete(ap.Pending, job.SessionID)
			ap.Mutex.Unlock()

		case <-ap.StopChan:
			log.Println("Attendance worker stopping: stop signal received")
			return
		}
	}
}

// QueueJob enqueues a session if it is not already pending. Enqueue never
// blocks; a full queue rejects the job and the caller reports the session
// as failed to start.
func (ap *AttendanceProcessor) QueueJob(job SessionJob) bool {
	ap.Mutex.Lock()
	if ap.Pending[job.SessionID] {
		ap.Mutex.Unlock()
		return false
	}
	ap.Pending[job.SessionID] = true
	ap.Mutex.Unlock()

	select {
	case ap.JobQueue <- job:
		log.Printf("Queued attendance session %s", job.SessionID)
		return true
	default:
		log.Printf("WARNING: attendance job queue full, rejecting session %s", job.SessionID)
		ap.Mutex.Lock()
		delete(ap.Pending, job.SessionID)
		ap.Mutex.Unlock()
		return false
	}
}

// Stop signals the worker and waits for it to finish the current session
func (ap *AttendanceProcessor) Stop() {
	log.Println("Stopping attendance worker...")
	close(ap.StopChan)
	ap.Wg.Wait()
	log.Println("Attendance worker stopped")
}
