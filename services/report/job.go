package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/models"
	"github.com/zennieheo/hackathon2024-BE/services"
	"github.com/zennieheo/hackathon2024-BE/services/ledger"
	"github.com/zennieheo/hackathon2024-BE/services/log"
	"github.com/zennieheo/hackathon2024-BE/services/metrics"
	"github.com/zennieheo/hackathon2024-BE/structs"
	"golang.org/x/sync/errgroup"
)

// ErrQueueMismatch is returned when a message names a different queue than the one it arrived on.
var ErrQueueMismatch = errors.New("queue type mismatch")

// Requester sends the worker callbacks. services.HttpRequest satisfies it.
type Requester func(method, url string, header map[string]string, data interface{}) ([]byte, error)

// ReportService turns queued report jobs into stored snapshots.
type ReportService struct {
	reporter    *Reporter
	entries     ledger.Store
	snapshots   SnapshotStore
	concurrency int
	appAPI      string
	request     Requester
	now         func() time.Time
	logger      *logrus.Logger
}

type JobOption func(*ReportService)

// WithConcurrency bounds how many owners an ALL job processes at once.
func WithConcurrency(n int) JobOption {
	return func(r *ReportService) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCallback posts job results to <appAPI>/api/v1/workerCallback/... when appAPI is set.
func WithCallback(appAPI string, request Requester) JobOption {
	return func(r *ReportService) {
		r.appAPI = strings.TrimRight(appAPI, "/")
		if request != nil {
			r.request = request
		}
	}
}

func WithJobClock(now func() time.Time) JobOption {
	return func(r *ReportService) {
		r.now = now
	}
}

func WithJobLogger(logger *logrus.Logger) JobOption {
	return func(r *ReportService) {
		r.logger = logger
	}
}

func NewReportService(entries ledger.Store, snapshots SnapshotStore, opts ...JobOption) *ReportService {
	var logService log.LogService
	r := &ReportService{
		reporter:    NewReporter(entries),
		entries:     entries,
		snapshots:   snapshots,
		concurrency: 1,
		request:     services.HttpRequest,
		now:         time.Now,
		logger:      logService.LoggerInit("report"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run collects the per-owner outcome of one job.
type run struct {
	sync.Mutex
	param  structs.ReportQueueParam
	owners int
	errors []structs.ErrorModel
}

func (j *run) handleError(owner string, err error) {
	j.Lock()
	defer j.Unlock()
	j.errors = append(j.errors, structs.ErrorModel{OwnerID: owner, ErrorMessage: err.Error()})
}

// Handle decodes one delivery from queue q and runs it.
func (r *ReportService) Handle(ctx context.Context, q string, body []byte) error {
	var param structs.ReportQueueParam
	if err := json.Unmarshal(body, &param); err != nil {
		r.logger.WithFields(logrus.Fields{"task": "report", "queue": q}).Errorf("decode job: %v", err)
		metrics.ReportJobs.WithLabelValues("invalid").Inc()
		return fmt.Errorf("decode report job: %w", err)
	}
	if param.QueueType != q {
		r.notifyMismatchQueue(param.TaskID, q, param.QueueType)
		metrics.ReportJobs.WithLabelValues("mismatch").Inc()
		return ErrQueueMismatch
	}

	if err := r.insertActivityLog(ctx, enums.ActivityJobReceived, param.OwnerID, fmt.Sprintf("(%d), queue name: %s, start...", param.TaskID, q)); err != nil {
		r.logger.WithFields(logrus.Fields{"task": "report", "task_id": param.TaskID}).Errorf("insert activity log: %v", err)
	}
	_, err := r.Start(ctx, param)
	return err
}

// Start runs a SINGLE or ALL job and returns the statistics written to the activity log.
func (r *ReportService) Start(ctx context.Context, param structs.ReportQueueParam) (structs.ActivityLogJsonModel, error) {
	job := &run{param: param}
	summary := structs.ActivityLogJsonModel{Type: param.Type, OwnerID: param.OwnerID, Date: param.Date}

	date, err := ledger.ParseDate(param.Date)
	if err != nil {
		summary.Message = err.Error()
		r.finish(ctx, job, &summary)
		return summary, err
	}
	job.param.Date = date

	switch param.Type {
	case enums.ProcessSingle:
		if param.OwnerID == "" {
			err = apperr.Validation("owner_id is required for a SINGLE job")
			break
		}
		job.owners = 1
		r.process(ctx, job, param.OwnerID)
	case enums.ProcessAll:
		err = r.processAll(ctx, job)
	default:
		err = apperr.Validation(fmt.Sprintf("unknown job type %q", param.Type))
	}
	if err != nil {
		summary.Message = err.Error()
	}
	r.finish(ctx, job, &summary)
	return summary, err
}

func (r *ReportService) processAll(ctx context.Context, job *run) error {
	owners, err := r.entries.OwnersOn(ctx, job.param.Date)
	if err != nil {
		return apperr.Internal("list owners", err)
	}
	job.owners = len(owners)
	r.logger.WithFields(logrus.Fields{"task": "report", "task_id": job.param.TaskID, "total_owner": len(owners)}).Info("owners loaded")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, owner := range owners {
		owner := owner
		g.Go(func() error {
			r.process(gctx, job, owner)
			return nil
		})
	}
	return g.Wait()
}

// process computes and stores one owner's snapshot. Failures are collected on the run.
func (r *ReportService) process(ctx context.Context, job *run, owner string) {
	logger := r.logger.WithFields(logrus.Fields{"task": "report", "task_id": job.param.TaskID, "owner_id": owner, "date": job.param.Date})

	totals, err := r.reporter.CalculateTotals(ctx, owner, job.param.Date)
	if err != nil {
		logger.Errorf("calculate totals: %v", err)
		job.handleError(owner, err)
		return
	}
	data, err := json.Marshal(totals)
	if err != nil {
		job.handleError(owner, err)
		return
	}

	now := r.now()
	snapshot := models.IntakeReport{
		OwnerID:   owner,
		Date:      job.param.Date,
		Data:      string(data),
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	if err := r.snapshots.SaveReport(ctx, snapshot); err != nil {
		logger.Errorf("save snapshot: %v", err)
		job.handleError(owner, err)
		return
	}
	logger.Info("snapshot saved")
}

func (r *ReportService) finish(ctx context.Context, job *run, summary *structs.ActivityLogJsonModel) {
	summary.Messages = job.errors
	summary.Statistic = structs.StatisticModel{
		TotalOwner: job.owners,
		FailOwner:  len(job.errors),
		OKOwner:    job.owners - len(job.errors),
	}
	summary.Result = summary.Message == "" && len(job.errors) == 0

	result := "ok"
	if !summary.Result {
		result = "failed"
	}
	metrics.ReportJobs.WithLabelValues(result).Inc()

	if err := r.insertActivityLog(ctx, enums.ActivityIntakeReport, job.param.OwnerID, summary); err != nil {
		r.logger.WithFields(logrus.Fields{"task": "report", "task_id": job.param.TaskID}).Errorf("insert activity log: %v", err)
	}
	r.JobDoneNotify(job.param.TaskID, *summary)
}

// insertActivityLog stores data as JSON in the activity_log table.
func (r *ReportService) insertActivityLog(ctx context.Context, name, subject string, data interface{}) error {
	properties, err := json.Marshal(data)
	if err != nil {
		return err
	}
	now := r.now()
	return r.snapshots.InsertActivityLog(ctx, models.ActivityLog{
		LogName:     name,
		Description: "intake-ledger worker log",
		SubjectID:   subject,
		Properties:  string(properties),
		CreatedAt:   &now,
		UpdatedAt:   &now,
	})
}

type jobDoneBody struct {
	TaskID uint                         `json:"task_id"`
	Result structs.ActivityLogJsonModel `json:"result"`
}

// JobDoneNotify tells the application API the job finished.
func (r *ReportService) JobDoneNotify(taskID uint, summary structs.ActivityLogJsonModel) {
	if r.appAPI == "" {
		return
	}
	endpoint := r.appAPI + "/api/v1/workerCallback/report"
	if _, err := r.request(http.MethodPost, endpoint, nil, jobDoneBody{TaskID: taskID, Result: summary}); err != nil {
		r.logger.WithFields(logrus.Fields{"task": "report", "task_id": taskID, "callback": endpoint}).Errorf("callback: %v", err)
	}
}

func (r *ReportService) notifyMismatchQueue(taskID uint, queue, queueType string) {
	r.logger.WithFields(logrus.Fields{"task": "report", "task_id": taskID, "queue": queue, "queue_type": queueType}).Warn("queue mismatch")
	if r.appAPI == "" {
		return
	}
	endpoint := r.appAPI + "/api/v1/workerCallback/mismatchQueue"
	body := structs.MismatchQueueResponse{TaskId: taskID, Queue: queue}
	if _, err := r.request(http.MethodPost, endpoint, nil, body); err != nil {
		r.logger.WithFields(logrus.Fields{"task": "report", "task_id": taskID, "callback": endpoint}).Errorf("callback: %v", err)
	}
}
