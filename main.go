package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/automoto/netfps/assets"
	"github.com/automoto/netfps/config"
	"github.com/automoto/netfps/network"
	"github.com/automoto/netfps/scenes"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/protocol"
	"github.com/automoto/netfps/shared/replication"
	"github.com/automoto/netfps/shared/tick"
	"github.com/automoto/netfps/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

type Game struct {
	scene scenes.Scene
}

// ChangeScene switches to a new scene
func (g *Game) ChangeScene(scene scenes.Scene) {
	g.scene = scene
}

func (g *Game) Update() error {
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	return config.C.Width, config.C.Height
}

// headlessScript walks a square and jumps at each corner.
func headlessScript() []network.Intents {
	var script []network.Intents
	for _, turn := range []float64{0, 0.4, 0.4, 0.4} {
		script = append(script, network.Intents{LookX: turn, Jump: true})
		script = append(script, network.Hold(network.Intents{MoveY: 1}, 64)...)
	}
	return script
}

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	serverAddr := flag.String("server", "", "Server host:port (overrides config)")
	name := flag.String("name", "", "Player name (overrides config)")
	headless := flag.Bool("headless", false, "Run without a window, driven by scripted input")
	ticks := flag.Int("ticks", 0, "Headless only: stop after this many ticks (0 = run until interrupted)")
	profile := flag.String("profile", "", "Client identity profile; run a second client on one machine with a different one")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *serverAddr != "" {
		config.Client.ServerAddr = *serverAddr
	}
	if *name != "" {
		config.Client.PlayerName = *name
	}
	if *headless {
		config.Client.Headless = true
	}
	if *profile != "" {
		config.Client.Profile = *profile
	}

	store, err := network.OpenIdentityStore(config.Client.AppName)
	if err != nil {
		log.Printf("Warning: client id will not persist: %v", err)
	}
	clientID, err := network.LoadClientID(store, config.Client.Profile)
	if err != nil {
		log.Fatalf("Failed to create client id: %v", err)
	}
	key, err := config.Auth.Key()
	if err != nil {
		log.Fatalf("Invalid auth config: %v", err)
	}
	auth := network.Auth{
		ClientID:        clientID,
		ServerAddr:      config.Client.ServerAddr,
		PrivateKey:      key,
		ProtocolID:      config.Auth.ProtocolID,
		TokenExpireSecs: config.Auth.TokenExpireSecs,
	}

	registry, err := protocol.RegisterComponents()
	if err != nil {
		log.Fatalf("Failed to register network components: %v", err)
	}
	sessionCfg := network.SessionConfig{
		InterpolationDelayTicks: config.Net.InterpolationDelayTicks,
		InputRedundancy:         config.Net.InputRedundancy,
		InputLeadTicks:          config.Net.InputLeadTicks,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("Client %d connecting to %s as %q", clientID, auth.ServerAddr, config.Client.PlayerName)

	if config.Client.Headless {
		source := &network.ScriptedSource{Script: headlessScript(), Loop: true}
		if err := runHeadless(ctx, auth, registry, source, sessionCfg, *ticks); err != nil {
			log.Fatal(err)
		}
		return
	}

	source := systems.NewKeyboardSource()
	connect := func() (*network.Client, *network.Driver) {
		client := network.NewClient(auth, config.Client.PlayerName)
		client.Connect(ctx)
		return client, network.NewDriver(client, registry, assets.NewLevelLoader(), source, sessionCfg)
	}

	ebiten.SetWindowSize(config.C.Width, config.C.Height)
	ebiten.SetWindowTitle(config.C.Title)
	ebiten.SetTPS(netconfig.TickRate)

	g := &Game{}
	g.scene = scenes.NewNetworkedScene(g, connect)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

// runHeadless drives one client from its own fixed-rate loop until the
// connection ends, ctx is cancelled or maxTicks have run.
func runHeadless(ctx context.Context, auth network.Auth, registry *replication.Registry, source network.DeviceSource, cfg network.SessionConfig, maxTicks int) error {
	client := network.NewClient(auth, config.Client.PlayerName)
	client.Connect(ctx)
	defer client.Disconnect()

	driver := network.NewDriver(client, registry, assets.NewLevelLoader(), source, cfg)

	var stepErr error
	var loop *tick.Loop
	loop = tick.NewLoop("client", tick.NewClock(netconfig.TickRate), func(t tick.Tick) {
		if err := driver.Step(); err != nil {
			stepErr = err
			loop.Stop()
			return
		}
		if maxTicks > 0 && int(t) >= maxTicks-1 {
			loop.Stop()
		}
		if s := driver.Session(); s != nil && int(t)%netconfig.TickRate == 0 {
			log.Println(systems.NetStats(client, s))
		}
	})
	loop.Run(ctx)

	if errors.Is(stepErr, network.ErrDisconnected) {
		if lastErr := client.LastError(); lastErr != nil {
			return lastErr
		}
		log.Println("Server closed the connection")
		return nil
	}
	return stepErr
}
