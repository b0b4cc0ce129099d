package socket_io

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forestfight/services/match"
	"forestfight/services/security"
	"forestfight/services/socket_io/handlers"
	socketio_types "forestfight/services/socket_io/types"
	socketio_utils "forestfight/services/socket_io/utils"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start wires the socket.io server into the gin router and registers
// the match events for every authenticated connection.
func (sio *MySocketServer) Start(router *gin.Engine, db *gorm.DB, engine *match.Engine, sec *security.Service) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.UserConnections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		success, username := socketio_utils.VerifyUserConnection(client, db)
		if !success {
			return
		}

		(*socketio_types.SocketServer)(sio).AddConnection(username, client)
		fmt.Println("An individual just connected!: ", username)

		// Lobby phase
		client.On("join_room", handlers.HandleJoinRoom(engine, sec, client, username))
		client.On("join_group", handlers.HandleJoinGroup(engine, sec, client, username))
		client.On("press_ready", handlers.HandlePressReady(engine, sec, client, username))
		client.On("unpress_ready", handlers.HandleUnpressReady(engine, sec, client, username))

		// Match phase
		client.On("game_started", handlers.HandleGameStarted(engine, sec, client, username))
		client.On("get_ability", handlers.HandleGetAbility(engine, sec, client, username))
		client.On("make_move", handlers.HandleMakeMove(engine, sec, client, username))
		client.On("skip_turn", handlers.HandleSkipTurn(engine, sec, client, username))

		// Session recovery
		client.On("get_game_state", handlers.HandleGetGameState(engine, sec, client, username))
		client.On("reconnect_to_game", handlers.HandleReconnect(engine, sec, client, username))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(engine, (*socketio_types.SocketServer)(sio), client, username))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Socket server started")
}
