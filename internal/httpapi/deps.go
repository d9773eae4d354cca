package httpapi

import (
	"database/sql"
	"sync/atomic"

	"easyapply-engine/internal/config"
	"easyapply-engine/internal/events"
	"easyapply-engine/internal/store"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	Answers *store.Answers

	// Config is the run's immutable snapshot.
	Cfg     config.Config
	CfgPath string

	Status *atomic.Value // stores httpapi.RunStatus
}
