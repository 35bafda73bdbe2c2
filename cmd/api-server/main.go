package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"inspirewall/internal/auth"
	"inspirewall/internal/gallery"
	"inspirewall/internal/manifest"
	"inspirewall/internal/showcase"
	"inspirewall/internal/subscribe"
	synchub "inspirewall/internal/sync"
	"inspirewall/pkg/database"
	"inspirewall/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Showcase
	scCfg := showcase.DefaultConfig()
	if srvCfg.ShowcaseConfigPath != "" {
		loaded, err := showcase.LoadConfigFile(srvCfg.ShowcaseConfigPath)
		if err != nil {
			log.Fatalf("showcase config: %v", err)
		}
		scCfg = loaded
	}
	loader := manifest.NewLoader(slog.Default(), manifest.SiteSources(srvCfg.SiteDir)...)
	if u := os.Getenv("INSPIREWALL_MANIFEST_URL"); u != "" {
		loader.Sources = append([]manifest.Source{manifest.NewHTTPSource(u)}, loader.Sources...)
	}
	wallpapers := loader.Load(ctx)

	engine, err := showcase.NewEngine(scCfg, wallpapers, showcase.Options{
		Preloader: showcase.NewSitePreloader(srvCfg.SiteDir),
	})
	if err != nil {
		log.Fatalf("showcase: %v", err)
	}

	hub := synchub.NewHub()
	if err := hub.Attach(engine); err != nil {
		log.Fatalf("sync hub: %v", err)
	}
	tcpSrv := synchub.NewServer(srvCfg.SyncAddr, hub, engine.State)
	// bind early so a busy port fails fast
	if _, err := tcpSrv.Listen(); err != nil {
		log.Fatalf("tcp sync listen: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(utils.CORS(srvCfg.CORSOrigin))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "InspireWall email API up"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})
	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"rotator":     engine.Rotator.Stats().State,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})
	router.GET("/ws", synchub.WSHandler(hub, engine))

	api := router.Group("/api")

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	secrets := auth.NewSecretVerifier(authCfg.AdminSecret, authCfg.AdminSecretHash)
	auth.NewHandler(secrets, tokenSvc).RegisterRoutes(api)

	// Subscriptions
	var upstream subscribe.Upstream
	if mc := utils.LoadMailchimpConfig(); mc.Enabled() {
		upstream = subscribe.NewMailchimp(mc)
		log.Printf("[subscribe] mailchimp enabled for list %s", mc.ListID)
	}
	emailLog := subscribe.NewEmailLog(srvCfg.DataFile)
	subHandler := subscribe.NewHandler(emailLog, subscribe.NewRepo(db), upstream, slog.Default())
	subHandler.RegisterRoutes(api, auth.AdminMiddleware(secrets, tokenSvc))

	// Manifest and showcase state
	gallery.NewHandler(wallpapers, engine).RegisterRoutes(router, api)

	// Everything else is the static site.
	router.NoRoute(staticSite(srvCfg.SiteDir))

	httpSrv := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return tcpSrv.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("HTTP API server listening on %s", srvCfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown error: %v", err)
		}
		if err := tcpSrv.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}
	log.Println("servers stopped")
}

// staticSite serves files under dir for GET requests that no route matched.
func staticSite(dir string) gin.HandlerFunc {
	fs := http.Dir(dir)
	files := http.FileServer(fs)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		name := path.Clean("/" + c.Request.URL.Path)
		if private(name) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if f, err := fs.Open(name); err == nil {
			f.Close()
			files.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	}
}

// private hides the data directory and dotfiles from the static handler.
func private(name string) bool {
	if name == "/data" || strings.HasPrefix(name, "/data/") {
		return true
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
