package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/openbeat/multiplayer-client/internal/config"
	"github.com/openbeat/multiplayer-client/internal/logger"
	"github.com/openbeat/multiplayer-client/internal/multiplayer"
	netclient "github.com/openbeat/multiplayer-client/internal/network/client"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	serverAddr := flag.String("server", "", "服务器地址（覆盖配置文件）")
	userID := flag.Int64("user", 0, "本地用户 ID")
	roomID := flag.Int64("room", 0, "启动后加入的房间 ID")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *serverAddr != "" {
		cfg.Server.Addr = *serverAddr
	}

	if err := logger.Init(cfg.Log.Dir, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	replica := multiplayer.NewReplica(*userID)
	sub := replica.Subscribe(multiplayer.Callbacks{
		OnRoomChanged: func(room multiplayer.Room) {
			log.Info().Int64("room", room.ID).Int("users", len(room.Users)).
				Stringer("state", room.State).Msg("room changed")
		},
		OnUserJoined: func(user multiplayer.RoomUser) {
			log.Info().Int64("user", user.UserID).
				Str("username", user.Profile.Username).Msg("user joined")
		},
		OnUserLeft: func(user multiplayer.RoomUser) {
			log.Info().Int64("user", user.UserID).Msg("user left")
		},
		OnUserKicked: func(user multiplayer.RoomUser) {
			log.Info().Int64("user", user.UserID).Msg("user kicked")
		},
		OnUserStateChanged: func(userID int64, state multiplayer.UserState) {
			log.Info().Int64("user", userID).Stringer("state", state).
				Int("playing", replica.PlayingUserCount()).Msg("user state changed")
		},
		OnRoomLeft: func() {
			log.Info().Msg("left room")
		},
	})
	defer sub.Close()

	client := netclient.NewClient(cfg, replica)
	if err := client.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "连接服务器失败: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	client.StartHeartbeat()

	if *roomID != 0 {
		if err := client.JoinRoom(*roomID); err != nil {
			log.Error().Err(err).Msg("join room request failed")
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
