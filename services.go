package main

import (
	"sync"

	"github.com/turtle-syndicate/bridge-settler/app"
	"github.com/turtle-syndicate/bridge-settler/models"
	"github.com/turtle-syndicate/bridge-settler/sol"
)

func CreateService(
	wg *sync.WaitGroup,
	serviceName string,
	serviceHealthMap map[string]models.ServiceHealth,
	createService func(*sync.WaitGroup) app.Service,
	createServiceWithLastHealth func(*sync.WaitGroup, models.ServiceHealth) app.Service,
) app.Service {
	serviceHealth, ok := serviceHealthMap[serviceName]
	if ok {
		return createServiceWithLastHealth(wg, serviceHealth)
	} else {
		return createService(wg)
	}
}

type ServiceFactory struct {
	CreateService               func(*sync.WaitGroup) app.Service
	CreateServiceWithLastHealth func(*sync.WaitGroup, models.ServiceHealth) app.Service
}

func GetServiceFactories(settler *sol.BridgeSettlerRunner) map[string]ServiceFactory {
	services := map[string]ServiceFactory{
		sol.BridgeSettlerName: {
			CreateService: func(wg *sync.WaitGroup) app.Service {
				return sol.NewBridgeSettler(wg, settler)
			},
			CreateServiceWithLastHealth: func(wg *sync.WaitGroup, lastHealth models.ServiceHealth) app.Service {
				return sol.NewBridgeSettlerWithLastHealth(wg, settler, lastHealth)
			},
		},
	}

	return services
}
