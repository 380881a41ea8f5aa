package cmd

import (
	"fmt"
	"time"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// Empty AMQPURL or PGNotifyChannel disables that relay sink.
	AMQPURL         string
	AMQPExchange    string
	PGNotifyChannel string

	// Empty RedisAddr reads branch locations straight from postgres.
	RedisAddr      string
	BranchCacheTTL time.Duration

	// Empty FCMCredentialsFile logs notifications instead of pushing them.
	FCMCredentialsFile string

	PickupCompletionDelay time.Duration
	RateLimitRPS          float64
	RateLimitBurst        int
}

// DSN is the libpq connection string shared by gorm and the LISTEN bridge.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
