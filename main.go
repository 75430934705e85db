package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go-home.io/x/kasa/plugins/common"
	"go-home.io/x/kasa/server"
	"go-home.io/x/kasa/settings"
	"go-home.io/x/kasa/systems/kasa"
	"go-home.io/x/kasa/worker"
)

func main() {
	options := &settings.StartUpOptions{}
	_, err := flags.Parse(options)
	if err != nil {
		os.Exit(1)
	}

	s, err := settings.Load(options)
	if err != nil {
		panic(err)
	}

	log := s.SystemLogger()
	log.Info("Starting kasa node", common.LogNodeToken, s.NodeID())

	directory := server.NewDirectory(s.PluginLogger("server", "directory"))
	wkr := worker.NewWorker(&worker.ConstructWorker{
		Settings: s,
		Connector: kasa.NewConnector(&kasa.ConstructConnector{
			Logger:   s.PluginLogger("kasa", "connector"),
			Settings: s.DiscoverySettings(),
		}),
		Directory: directory,
	})

	srv := server.NewServer(&server.ConstructServer{
		Settings:   s,
		Reconciler: wkr,
		Directory:  directory,
	})

	if err := wkr.Start(); err != nil {
		log.Fatal("Failed to start kasa worker", err)
	}

	if err := srv.Start(); err != nil {
		wkr.Stop()
		log.Fatal("Failed to start kasa server", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info("Received stop command, exiting")
	srv.Stop()
	wkr.Stop()
}
