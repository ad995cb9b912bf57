package enums

type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
	Snack     MealSlot = "snack"
)

// MealSlots lists the slots in display order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner, Snack}

func (m MealSlot) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

func (m MealSlot) String() string {
	return string(m)
}

const (
	ProcessSingle = "SINGLE"
	ProcessAll    = "ALL"
)

const (
	ReportQueue   = "intake-report"
	QueueConnName = "intake"
)

const (
	ActivityWorkerInit   = "schedule.go.job.init"
	ActivityJobReceived  = "schedule.go.job.received"
	ActivityIntakeReport = "schedule.go.intake-report"
)

const (
	DatabaseMySQL  = "mysql"
	DatabaseMemory = "memory"
)

// DateLayout is the only accepted wire format for calendar dates.
const DateLayout = "2006-01-02"
