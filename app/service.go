package app

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/turtle-syndicate/bridge-settler/models"
)

type Service interface {
	Start()
	Health() models.ServiceHealth
	Stop()
}

type Runner interface {
	Run()
	Status() models.RunnerStatus
}

type EmptyService struct {
	wg *sync.WaitGroup
}

func (e *EmptyService) Start() {}

func (e *EmptyService) Stop() {
	e.wg.Done()
}

const EmptyServiceName = "empty"

func (e *EmptyService) Health() models.ServiceHealth {
	return models.ServiceHealth{
		Name:         EmptyServiceName,
		LastSyncTime: time.Now(),
		NextSyncTime: time.Now(),
		Healthy:      true,
	}
}

func NewEmptyService(wg *sync.WaitGroup) *EmptyService {
	return &EmptyService{
		wg: wg,
	}
}

// RunnerService calls runner.Run every interval until stopped.
type RunnerService struct {
	name     string
	runner   Runner
	stop     chan bool
	interval time.Duration
	wg       *sync.WaitGroup

	healthMu     sync.RWMutex
	lastSyncTime time.Time
	nextSyncTime time.Time
}

func (b *RunnerService) Start() {
	log.Debugf("[%s] Starting service", b.name)
	stop := false
	for !stop {
		log.Debugf("[%s] Starting run", b.name)
		b.runner.Run()
		log.Debugf("[%s] Finished run", b.name)

		b.updateSyncTimes()
		log.Debugf("[%s] Sleeping for %s", b.name, b.interval)

		select {
		case <-b.stop:
			stop = true
			log.Debugf("[%s] Stopped service", b.name)
		case <-time.After(b.interval):
		}
	}
	b.wg.Done()
}

func (b *RunnerService) updateSyncTimes() {
	b.healthMu.Lock()
	defer b.healthMu.Unlock()
	b.lastSyncTime = time.Now()
	b.nextSyncTime = b.lastSyncTime.Add(b.interval)
}

func (b *RunnerService) Health() models.ServiceHealth {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	return models.ServiceHealth{
		Name:         b.name,
		LastSyncTime: b.lastSyncTime,
		NextSyncTime: b.nextSyncTime,
		Status:       b.runner.Status(),
		Healthy:      true,
	}
}

// Stop signals the run loop to exit after the current run. It never blocks.
func (b *RunnerService) Stop() {
	log.Debugf("[%s] Stopping service", b.name)
	select {
	case b.stop <- true:
	default:
	}
}

func NewRunnerService(
	name string,
	runner Runner,
	wg *sync.WaitGroup,
	interval time.Duration,
) *RunnerService {
	if runner == nil || name == "" || interval <= 0 {
		log.Error("[RUNNER] Invalid parameters for runner service")
		return nil
	}

	return &RunnerService{
		name:         name,
		runner:       runner,
		stop:         make(chan bool, 1),
		interval:     interval,
		wg:           wg,
		lastSyncTime: time.Now(),
		nextSyncTime: time.Now(),
	}
}
