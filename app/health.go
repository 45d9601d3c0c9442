package app

import (
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/turtle-syndicate/bridge-settler/models"
)

const (
	HealthServiceName = "HEALTH"
)

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		log.WithError(err).Warn("[HEALTH] Error getting hostname")
		return "unknown"
	}
	return name
}

// HealthCheckRunner upserts one health document per authority and host.
type HealthCheckRunner struct {
	authorityAddress string
	hostname         string

	servicesMu sync.RWMutex
	services   []Service
}

func (x *HealthCheckRunner) Run() {
	x.PostHealth()
}

func (x *HealthCheckRunner) Status() models.RunnerStatus {
	return models.RunnerStatus{
		Authority: x.authorityAddress,
	}
}

func (x *HealthCheckRunner) filter() bson.M {
	return bson.M{
		"authority_address": x.authorityAddress,
		"hostname":          x.hostname,
	}
}

func (x *HealthCheckRunner) FindLastHealth() (models.Health, error) {
	var health models.Health
	err := DB.FindOne(models.CollectionHealthChecks, x.filter(), &health)
	return health, err
}

func (x *HealthCheckRunner) ServiceHealths() []models.ServiceHealth {
	x.servicesMu.RLock()
	defer x.servicesMu.RUnlock()

	var serviceHealths []models.ServiceHealth
	for _, service := range x.services {
		health := service.Health()
		if health.Name == EmptyServiceName {
			continue
		}
		serviceHealths = append(serviceHealths, health)
	}
	return serviceHealths
}

func (x *HealthCheckRunner) PostHealth() bool {
	log.Debug("[HEALTH] Posting health")

	onInsert := bson.M{
		"authority_address": x.authorityAddress,
		"hostname":          x.hostname,
		"created_at":        time.Now(),
	}

	onUpdate := bson.M{
		"healthy":         true,
		"service_healths": x.ServiceHealths(),
		"updated_at":      time.Now(),
	}

	update := bson.M{"$set": onUpdate, "$setOnInsert": onInsert}

	if err := DB.UpsertOne(models.CollectionHealthChecks, x.filter(), update); err != nil {
		log.Error("[HEALTH] Error posting health: ", err)
		return false
	}

	log.Info("[HEALTH] Posted health")
	return true
}

func (x *HealthCheckRunner) SetServices(services []Service) {
	x.servicesMu.Lock()
	defer x.servicesMu.Unlock()
	x.services = services
}

func NewHealthCheck(authorityAddress string) *HealthCheckRunner {
	log.Debug("[HEALTH] Initializing health")

	x := &HealthCheckRunner{
		authorityAddress: authorityAddress,
		hostname:         hostname(),
	}

	log.Info("[HEALTH] Initialized health")
	return x
}

func NewHealthService(x *HealthCheckRunner, wg *sync.WaitGroup) Service {
	interval := time.Duration(Config.HealthCheck.IntervalMillis) * time.Millisecond
	service := NewRunnerService(HealthServiceName, x, wg, interval)
	if service == nil {
		log.Fatal("[HEALTH] Invalid health check interval: ", interval)
	}
	return service
}
