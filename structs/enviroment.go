package structs

import "time"

type EnvironmentModel struct {
	Database         database
	ConcurrentAmount int
	RabbitMQ         rabbitmq
	Log              log
	Server           server
	Router           router
	Auth             auth
	Throttle         throttle
	Cors             cors
}

type server struct {
	AppAPI   string
	Timezone string
}

type database struct {
	Client      string
	MaxIdle     uint
	MaxLifeTime string
	MaxOpenConn uint
	User        string
	Password    string
	Host        string
	Db          string
	Params      string
	Port        string
	LogEnable   int
}

type rabbitmq struct {
	Enable int
	Domain string
}

type log struct {
	FileEnable     int
	ElkEnable      int
	ElkIndex       string
	ElkURL         string
	LogstashEnable int
	LogstashURL    string
	LogstashIndex  string
}

type router struct {
	Port           int
	TrustedProxies []string
}

type auth struct {
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type throttle struct {
	AnonPerDay int
	UserPerDay int
}

type cors struct {
	AllowedOrigins []string
}
