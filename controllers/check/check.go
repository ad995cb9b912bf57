package check

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/zennieheo/hackathon2024-BE/database"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/services/rabbitmq"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
)

type AliveResponse struct {
	Success  bool      `json:"success"`
	Messsage string    `json:"message"`
	Info     CheckInfo `json:"info"`
}

type CheckInfo struct {
	Database   string   `json:"database"`
	Queues     []string `json:"queue"`
	RoutineNum int      `json:"routine_num"`
}

// CheckAlive reports database and queue health. Success is false when either is down.
func CheckAlive(c *gin.Context) {
	resMsg := "main thread alive"
	success := true
	checkInfo := CheckInfo{Database: "ok"}

	if err := database.Ping(); err != nil {
		success = false
		checkInfo.Database = err.Error()
		resMsg = "database unreachable"
		trackLog.Error(fmt.Sprintf("database ping: %s", err))
	}

	// nil means the queue is disabled
	if rabbitConn := rabbitmq.GetConnection(enums.QueueConnName); rabbitConn != nil {
		if msg, ok := checkQueues(rabbitConn, &checkInfo); !ok {
			success = false
			resMsg = msg
		}
	}

	checkInfo.RoutineNum = runtime.NumGoroutine()
	trackLog.Info(fmt.Sprintf("goroutine number: %d", checkInfo.RoutineNum))

	c.JSON(http.StatusOK, AliveResponse{success, resMsg, checkInfo})
}

// checkQueues only reads the connection state. Reconnecting belongs to the consumer.
func checkQueues(rabbitConn *rabbitmq.Connection, checkInfo *CheckInfo) (string, bool) {
	queues, err := rabbitConn.Inspect()
	if err != nil {
		msg := fmt.Sprintf("queue check fail: %s", err)
		trackLog.Error(msg)
		return msg, false
	}

	for _, queue := range queues {
		queueJSON, _ := json.Marshal(queue)
		checkInfo.Queues = append(checkInfo.Queues, string(queueJSON))
	}
	return "main thread alive", true
}
