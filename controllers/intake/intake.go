package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/controllers/response"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	"github.com/zennieheo/hackathon2024-BE/services/ledger"
	"github.com/zennieheo/hackathon2024-BE/services/rabbitmq"
	"github.com/zennieheo/hackathon2024-BE/services/report"
	"github.com/zennieheo/hackathon2024-BE/structs"
)

var errInvalidBody = apperr.Validation("Request body must be a JSON object.")

// Publisher puts report jobs on the queue.
type Publisher interface {
	Publish(ctx context.Context, m rabbitmq.Message) error
}

type Controller struct {
	ledger    *ledger.Ledger
	reporter  *report.Reporter
	snapshots report.SnapshotStore
	jobs      *report.ReportService
	publisher Publisher
}

// NewController wires the intake endpoints. With a nil publisher report jobs run inline.
func NewController(l *ledger.Ledger, snapshots report.SnapshotStore, jobs *report.ReportService, publisher Publisher) *Controller {
	return &Controller{
		ledger:    l,
		reporter:  report.NewReporter(l.Store()),
		snapshots: snapshots,
		jobs:      jobs,
		publisher: publisher,
	}
}

func (ctl *Controller) Register(group *gin.RouterGroup) {
	group.POST("/", ctl.Create)
	group.GET("/", ctl.Totals)
	group.GET("/entries", ctl.Entries)
	group.POST("/bulk", ctl.Bulk)
	group.DELETE("/", ctl.Purge)
	group.POST("/reports", ctl.EnqueueReport)
	group.GET("/reports", ctl.Report)
}

// Create records one entry and answers with the totals of its day.
func (ctl *Controller) Create(c *gin.Context) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil || fields == nil {
		response.Error(c, errInvalidBody)
		return
	}
	if raw, ok := fields["date"]; ok && string(raw) != "null" {
		var date string
		if err := json.Unmarshal(raw, &date); err != nil {
			response.Error(c, ledger.ErrDateFormat)
			return
		}
		if _, err := ledger.ParseDate(date); err != nil {
			response.Error(c, err)
			return
		}
	}

	problems := apperr.FieldErrors{}
	input := ledger.DecodeEntry(fields, "", problems)
	input.Validate("", problems)
	if err := problems.Err(); err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := middlewares.Owner(c)
	entry, err := ctl.ledger.Record(ctx, owner, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	totals, err := ctl.reporter.CalculateTotals(ctx, owner, entry.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, totals)
}

// Totals answers with the aggregation of ?date=.
func (ctl *Controller) Totals(c *gin.Context) {
	totals, err := ctl.reporter.CalculateTotals(c.Request.Context(), middlewares.Owner(c), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (ctl *Controller) Entries(c *gin.Context) {
	date := c.Query("date")
	entries, err := ctl.ledger.EntriesFor(c.Request.Context(), middlewares.Owner(c), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "entries": entries})
}

type bulkBody struct {
	Entries []map[string]json.RawMessage `json:"entries"`
}

// Bulk records a list of entries atomically.
func (ctl *Controller) Bulk(c *gin.Context) {
	var body bulkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errInvalidBody)
		return
	}

	problems := apperr.FieldErrors{}
	inputs := make([]ledger.NewEntry, 0, len(body.Entries))
	for i, fields := range body.Entries {
		prefix := fmt.Sprintf("entries[%d].", i)
		input := ledger.DecodeEntry(fields, prefix, problems)
		input.Validate(prefix, problems)
		inputs = append(inputs, input)
	}
	if err := problems.Err(); err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	owner := middlewares.Owner(c)
	if _, err := ctl.ledger.RecordBatch(ctx, owner, inputs); err != nil {
		response.Error(c, err)
		return
	}
	totals, err := ctl.reporter.CalculateTotals(ctx, owner, ctl.ledger.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, totals)
}

// Purge deletes every entry of the caller.
func (ctl *Controller) Purge(c *gin.Context) {
	deleted, err := ctl.ledger.PurgeAll(c.Request.Context(), middlewares.Owner(c))
	if errors.Is(err, ledger.ErrNothingToPurge) {
		c.JSON(http.StatusNotFound, gin.H{"message": ledger.ErrNothingToPurge.Message})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type reportBody struct {
	Date   string `json:"date"`
	TaskID uint   `json:"task_id"`
}

// EnqueueReport schedules a snapshot of the caller's day.
func (ctl *Controller) EnqueueReport(c *gin.Context) {
	var body reportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errInvalidBody)
		return
	}
	date, err := ledger.ParseDate(body.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	param := structs.ReportQueueParam{
		Type:      enums.ProcessSingle,
		OwnerID:   middlewares.Owner(c),
		Date:      date,
		TaskID:    body.TaskID,
		QueueType: enums.ReportQueue,
	}
	ctx := c.Request.Context()

	if ctl.publisher == nil {
		summary, err := ctl.jobs.Start(ctx, param)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !summary.Result {
			response.Error(c, apperr.Internal("report job", fmt.Errorf("%d of %d owners failed", summary.Statistic.FailOwner, summary.Statistic.TotalOwner)))
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}

	payload, err := json.Marshal(param)
	if err != nil {
		response.Error(c, apperr.Internal("encode report job", err))
		return
	}
	if err := ctl.publisher.Publish(ctx, rabbitmq.Message{Queue: enums.ReportQueue, Body: payload}); err != nil {
		response.Error(c, apperr.Internal("publish report job", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true, "date": date})
}

// Report returns the last stored snapshot of ?date=.
func (ctl *Controller) Report(c *gin.Context) {
	date, err := ledger.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	snapshot, err := ctl.snapshots.FindReport(c.Request.Context(), middlewares.Owner(c), date)
	if err != nil {
		response.Error(c, apperr.Internal("find report", err))
		return
	}
	if snapshot == nil {
		response.Error(c, apperr.NotFound("No report for this date."))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":       snapshot.Date,
		"data":       json.RawMessage(snapshot.Data),
		"updated_at": snapshot.UpdatedAt,
	})
}
