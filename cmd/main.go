package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayilmaz/meetspot/config"
	deps "github.com/ayilmaz/meetspot/internal/debs"
	api "github.com/ayilmaz/meetspot/internal/http/rest"
	"github.com/ayilmaz/meetspot/internal/notify"
	"github.com/ayilmaz/meetspot/internal/service"
	"github.com/ayilmaz/meetspot/util/websockets"
)

const allowConnectionsAfterShutdown = 1 * time.Second

func main() {
	cfg := config.New()
	deps := deps.New(cfg)

	meetingRepo := &api.MeetingRepo{DB: deps.DB}
	messageRepo := &api.MessageRepo{DB: deps.DB}
	userRepo := &api.UserRepo{DB: deps.DB}

	var sender notify.Sender
	if deps.FCM != nil {
		sender = deps.FCM
	}
	dispatcher := notify.NewDispatcher(userRepo, sender)
	go dispatcher.Run()

	meetings := service.NewMeetingService(meetingRepo, userRepo, dispatcher)
	chat := service.NewChatService(meetingRepo, messageRepo, dispatcher)

	sweepInterval, err := time.ParseDuration(cfg.FinishSweepInterval)
	if err != nil {
		log.Printf("invalid FINISH_SWEEP_INTERVAL %q, using 1m", cfg.FinishSweepInterval)
		sweepInterval = time.Minute
	}
	finisher := service.NewFinisher(meetingRepo, sweepInterval)

	a := &api.API{
		Config:      cfg,
		Deps:        deps,
		DB:          deps.Pool(),
		Meetings:    meetings,
		Chat:        chat,
		MeetingRepo: meetingRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
	}
	a.Hub = websockets.NewHub(chat, a.VerifyAccessToken)

	ctx, cancel := context.WithCancel(context.Background())
	go a.Hub.Run(ctx)
	go finisher.Run(ctx)

	go func() {
		log.Printf("Server running on port %v ...", cfg.Port)
		log.Fatal(a.Serve())
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	log.Println("Request to shutdown server. Doing nothing for ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Println("Shutting down server...")

	if err := a.Shutdown(); err != nil {
		log.Printf("error shutting down server: %v", err)
	}

	cancel()
	dispatcher.Close()
	deps.Close()
	log.Println("Database connections closed.")
}
