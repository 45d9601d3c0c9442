package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"github.com/turtle-syndicate/bridge-settler/app"
	"github.com/turtle-syndicate/bridge-settler/models"
	"github.com/turtle-syndicate/bridge-settler/sol"
)

func main() {

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	var configPath string
	var envPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&envPath, "env", "", "path to env file")
	flag.Parse()

	var absConfigPath string
	var err error
	if configPath != "" {
		absConfigPath, err = filepath.Abs(configPath)
		if err != nil {
			log.Fatal("[MAIN] Error getting absolute path for config file: ", err)
		}
	}

	var absEnvPath string
	if envPath != "" {
		absEnvPath, err = filepath.Abs(envPath)
		if err != nil {
			log.Fatal("[MAIN] Error getting absolute path for env file: ", err)
		}
	}

	app.InitConfig(absConfigPath, absEnvPath)
	app.InitLogger()
	app.InitDB()

	signer, err := app.CreateAuthoritySigner()
	if err != nil {
		log.Fatal("[MAIN] Error creating authority signer: ", err)
	}

	healthcheck := app.NewHealthCheck(signer.PublicKey().String())

	serviceHealthMap := make(map[string]models.ServiceHealth)
	if app.Config.HealthCheck.ReadLastHealth {
		if lastHealth, err := healthcheck.FindLastHealth(); err == nil {
			for _, serviceHealth := range lastHealth.ServiceHealths {
				serviceHealthMap[serviceHealth.Name] = serviceHealth
			}
		} else {
			log.Warn("[MAIN] No last health found: ", err)
		}
	}

	settler := sol.NewBridgeSettlerRunner(signer)

	var wg sync.WaitGroup

	var services []app.Service

	serviceFactories := GetServiceFactories(settler)
	serviceNames := make([]string, 0, len(serviceFactories))
	for name := range serviceFactories {
		serviceNames = append(serviceNames, name)
	}
	sort.Strings(serviceNames)

	for _, name := range serviceNames {
		factory := serviceFactories[name]
		services = append(services, CreateService(
			&wg,
			name,
			serviceHealthMap,
			factory.CreateService,
			factory.CreateServiceWithLastHealth,
		))
	}

	router := app.NewRouter(healthcheck.ServiceHealths, func(r chi.Router) {
		sol.NewCronHandler(settler, app.Config.HTTP.CronSecret).Mount(r, app.Config.HTTP.CronPath)
	})
	services = append(services, app.NewHTTPService(&wg, router))

	healthcheck.SetServices(services)
	services = append(services, app.NewHealthService(healthcheck, &wg))

	wg.Add(len(services))

	for _, service := range services {
		go service.Start()
	}

	log.Info("[MAIN] Server started")

	gracefulStop := make(chan os.Signal, 1)
	done := make(chan bool, 1)
	signal.Notify(gracefulStop, syscall.SIGINT, syscall.SIGTERM)
	go waitForExitSignals(gracefulStop, done)
	<-done

	log.Debug("[MAIN] Stopping server gracefully")

	for _, service := range services {
		service.Stop()
	}

	wg.Wait()

	signer.Destroy()
	app.DB.Disconnect()
	log.Info("[MAIN] Server stopped")
}

func waitForExitSignals(gracefulStop chan os.Signal, done chan bool) {
	sig := <-gracefulStop
	log.Debug("[MAIN] Caught signal: ", sig)
	done <- true
}
