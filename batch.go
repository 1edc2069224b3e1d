package ntfsnav

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/dsoprea/go-logging"
)

const (
	outputDirectoryMode = 0755
)

var (
	batchLogger = log.NewLogger("ntfsnav.batch")
)

// FailurePolicy decides what a batch does after a job fails.
type FailurePolicy int

const (
	// AbortOnFailure stops the run at the first failed job.
	AbortOnFailure FailurePolicy = iota

	// ContinueOnFailure records the failure and moves on to the next job.
	ContinueOnFailure
)

func (fp FailurePolicy) String() string {
	switch fp {
	case AbortOnFailure:
		return "AbortOnFailure"
	case ContinueOnFailure:
		return "ContinueOnFailure"
	}

	return fmt.Sprintf("FailurePolicy(%d)", int(fp))
}

// Job is one path to extract, optionally suffixed with ":stream".
type Job struct {
	Path string
}

// ReadJobs reads one job per line. Trailing carriage-returns are stripped
// and blank lines are skipped.
func ReadJobs(r io.Reader) (jobs []Job, err error) {
	jobs = make([]Job, 0)

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		jobs = append(jobs, Job{Path: line})
	}

	err = s.Err()
	if err != nil {
		return nil, log.Wrap(err)
	}

	return jobs, nil
}

// ReadJobsFile reads jobs from the file at the given path.
func ReadJobsFile(filepath string) (jobs []Job, err error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, log.Wrap(err)
	}

	defer f.Close()

	return ReadJobs(f)
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job        Job
	Resolution Resolution
	Extraction ExtractionResult
	Err        error
}

// Failed indicates whether the job counts as a failure. A missing named
// stream is reported but is not a failure.
func (jr JobResult) Failed() bool {
	return jr.Err != nil && jr.Skipped() == false
}

// Skipped indicates that the job resolved but had no such stream.
func (jr JobResult) Skipped() bool {
	return errors.Is(jr.Err, ErrMissingDataStream)
}

func (jr JobResult) String() string {
	if jr.Err != nil {
		return fmt.Sprintf("JobResult<PATH=[%s] ERROR=[%v]>", jr.Job.Path, jr.Err)
	}

	return fmt.Sprintf("JobResult<PATH=[%s] OUTPUT=[%s] WRITTEN=(%d)>", jr.Job.Path, jr.Extraction.OutputFilepath, jr.Extraction.Written)
}

// BatchError summarizes the failed jobs of a run.
type BatchError struct {
	Failed int
	Total  int

	// First is the error of the first failed job.
	First error
}

func (be *BatchError) Error() string {
	return fmt.Sprintf("(%d) of (%d) jobs failed; first: %v", be.Failed, be.Total, be.First)
}

func (be *BatchError) Unwrap() error {
	return be.First
}

// splitJobPath separates an optional ":stream" suffix from the last
// component of the path.
func splitJobPath(path string) (resolvePath, streamName string) {
	i := strings.LastIndex(path, PathSeparator)

	baseName, streamName := SplitStreamName(path[i+1:])
	return path[:i+1] + baseName, streamName
}

// BatchRunner runs independent extraction jobs over one session. The session
// is put back at the root before and after every job.
type BatchRunner struct {
	nav             *Navigator
	ex              *Extractor
	outputDirectory string
	policy          FailurePolicy
}

// NewBatchRunner returns a runner writing into `outputDirectory`.
func NewBatchRunner(nav *Navigator, ex *Extractor, outputDirectory string, policy FailurePolicy) *BatchRunner {
	if outputDirectory == "" {
		outputDirectory = "."
	}

	return &BatchRunner{
		nav:             nav,
		ex:              ex,
		outputDirectory: outputDirectory,
		policy:          policy,
	}
}

// extractPath resolves `path` (optionally suffixed with ":stream") on the
// given session and extracts the stream it names.
func extractPath(nav *Navigator, ex *Extractor, path, outputDirectory string) (res Resolution, er ExtractionResult, err error) {
	resolvePath, streamName := splitJobPath(path)

	res, err = nav.Resolve(resolvePath)
	if err != nil {
		return res, er, err
	}

	if res.Name == "" || (res.Kind == ResolvedDirectory && streamName == "") {
		return res, er, &NotAFileError{Path: path}
	}

	er, err = ex.Extract(res.RecordNumber, res.Name, streamName, outputDirectory)
	return res, er, err
}

// RunJob resolves and extracts a single job.
func (br *BatchRunner) RunJob(job Job) (jr JobResult) {
	jr.Job = job

	br.nav.ResetToRoot()
	defer br.nav.ResetToRoot()

	jr.Resolution, jr.Extraction, jr.Err = extractPath(br.nav, br.ex, job.Path, br.outputDirectory)

	return jr
}

// Run executes the jobs in order. Under AbortOnFailure the results end at
// the failed job.
func (br *BatchRunner) Run(jobs []Job) (results []JobResult, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	err = os.MkdirAll(br.outputDirectory, outputDirectoryMode)
	log.PanicIf(err)

	results = make([]JobResult, 0, len(jobs))

	var be *BatchError

	for _, job := range jobs {
		jr := br.RunJob(job)
		results = append(results, jr)

		if jr.Skipped() == true {
			batchLogger.Warningf(nil, "Job [%s] skipped: %v", job.Path, jr.Err)
			continue
		} else if jr.Failed() == false {
			batchLogger.Debugf(nil, "Job [%s] done: %s", job.Path, jr.Extraction)
			continue
		}

		if be == nil {
			be = &BatchError{
				First: jr.Err,
			}
		}

		be.Failed++

		if br.policy == AbortOnFailure {
			batchLogger.Warningf(nil, "Job [%s] failed; aborting run: %v", job.Path, jr.Err)
			break
		}

		batchLogger.Warningf(nil, "Job [%s] failed; continuing: %v", job.Path, jr.Err)
	}

	if be != nil {
		be.Total = len(jobs)
		return results, be
	}

	return results, nil
}
