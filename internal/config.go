package internal

import "time"

type Config struct {
	Host             string        `env:"HOST,default=0.0.0.0"`
	Port             int           `env:"PORT,default=8080"`
	DebugPort        int           `env:"DEBUG_PORT,default=0"`
	LogLevel         string        `env:"LOG_LEVEL,default=info"`
	JWTSecret        string        `env:"JWT_SECRET,required=true"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH,required=true"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,default=5s"`
	SinkTimeout      time.Duration `env:"SINK_TIMEOUT,default=3s"`
	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,default=256"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}
