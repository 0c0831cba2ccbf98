package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"albstats/internal/classifier"
	"albstats/internal/config"
	"albstats/internal/importer"
	"albstats/internal/logger"
	"albstats/internal/override"
	"albstats/internal/server"
	"albstats/internal/session"
	"albstats/internal/store"
	"albstats/internal/util"
)

// 端口被占用时向后尝试的数量
const portAttempts = 10

var (
	configPath string
	sourceFile string
	checkOnly  bool
	port       int
	host       string
	devMode    bool
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "albstats",
	Short: "Chargen-Statistik für Mitgliederexporte",
	Long: `albstats liest einen Mitgliederexport (Datenexport*.xlsx) und startet ein lokales
Dashboard mit Alters-, Status- und Chargenstatistiken.

Ohne --file wird die zuletzt geladene Datei geöffnet, sonst der neueste
Datenexport*.xlsx im aktuellen Verzeichnis.`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Pfad zur config.toml (Standard: neben der Programmdatei)")

	flags := rootCmd.Flags()
	flags.StringVar(&sourceFile, "file", "", "Pfad zur Exportdatei (.xlsx)")
	flags.BoolVar(&checkOnly, "check-only", false, "Datei nur prüfen und Zusammenfassung ausgeben")
	flags.IntVar(&port, "port", 0, "Port des Dashboards (überschreibt config.toml)")
	flags.StringVar(&host, "host", "", "Host des Dashboards (überschreibt config.toml)")
	flags.BoolVar(&devMode, "dev", false, "Entwicklungsmodus")
	flags.StringVar(&dataDir, "dataDir", "", "Datenverzeichnis (überschreibt config.toml)")

	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 读取配置文件与环境变量，命令行参数最后覆盖
func loadConfig(cmd *cobra.Command) (*config.AppConfig, config.LoadConfigInfo, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, info, err := config.LoadConfigWithInfo(path)
	if err != nil {
		return nil, info, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("dev") {
		cfg.Server.DevMode = devMode
	}
	if flags.Changed("dataDir") {
		cfg.Data.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, info, err
	}
	return cfg, info, nil
}

// app 运行期依赖
type app struct {
	cfg     *config.AppConfig
	dataDir string
	logger  *slog.Logger
	history *store.Store
	session *session.Manager
}

// newApp 组装会话；withHistory 为 false 时不打开导入历史库
func newApp(cfg *config.AppConfig, logOut io.Writer, withHistory bool) (*app, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format, logOut)
	slog.SetDefault(log)

	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("Datenverzeichnis kann nicht angelegt werden: %w", err)
	}

	var history *store.Store
	if withHistory {
		history, err = store.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("Importhistorie kann nicht geöffnet werden: %w", err)
		}
		log.Debug("import history opened", slog.String("path", history.Path()))
	}

	sess := session.NewManager(session.Deps{
		Loader: importer.Options{
			SheetName: cfg.Excel.SheetName,
			HeaderRow: cfg.Excel.HeaderRow,
		},
		Classifier: classifier.New(cfg.Classification),
		Overrides:  override.Open(config.OverridePath(cfg, dir), log),
		History:    history,
		Analysis:   cfg.Analysis,
		Logger:     log,
	})
	return &app{cfg: cfg, dataDir: dir, logger: log, history: history, session: sess}, nil
}

// Close 关闭历史库
func (a *app) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// lastSourcePath 上次成功加载的文件
func (a *app) lastSourcePath() string {
	if a.history == nil {
		return ""
	}
	path, err := a.history.LastSourcePath()
	if err != nil {
		a.logger.Warn("last source path unavailable", slog.Any("error", err))
		return ""
	}
	return path
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, info, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	wd, _ := os.Getwd()
	if checkOnly {
		return runCheck(cmd.OutOrStdout(), cfg, sourceFile, wd)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "==========================================")
	fmt.Fprintln(out, "  albstats - Chargen-Statistik")
	fmt.Fprintln(out, "==========================================")
	if info.Found {
		fmt.Fprintf(out, "Konfiguration: %s\n", info.Path)
	}

	a, err := newApp(cfg, os.Stderr, true)
	if err != nil {
		return err
	}
	defer a.Close()
	fmt.Fprintf(out, "Datenverzeichnis: %s\n", a.dataDir)

	path, err := resolveSource(sourceFile, a.lastSourcePath(), wd, cfg.Excel.FilePattern)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(out, "Keine Exportdatei gefunden, Dashboard startet ohne Daten.")
	} else if ds, err := a.session.LoadFile(path); err != nil {
		// 显式指定的文件必须可读；自动发现的文件失败时空启动
		if sourceFile != "" {
			return err
		}
		fmt.Fprintf(out, "Datei konnte nicht geladen werden: %v\n", err)
	} else {
		fmt.Fprintf(out, "Datei: %s (%d Mitglieder, %d Chargen)\n", path, len(ds.Members), len(ds.Assignments))
	}

	return serve(cmd.Context(), out, a)
}

// serve 启动 HTTP 服务直到收到 SIGINT/SIGTERM
func serve(parent context.Context, out io.Writer, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	p := util.FindAvailablePort(cfg.Server.Host, cfg.Server.Port, portAttempts)
	if p != cfg.Server.Port {
		fmt.Fprintf(out, "Port %d belegt, verwende %d\n", cfg.Server.Port, p)
	}
	addr := server.Addr(cfg.Server.Host, p)
	url := "http://" + server.Addr(browserHost(cfg.Server.Host), p)

	srv := server.NewServer(cfg, a.session, a.logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, addr)
	})

	if cfg.Server.DevMode {
		fmt.Fprintf(out, "Entwicklungsmodus: %s\n", url)
	} else {
		fmt.Fprintf(out, "Browser wird geöffnet: %s\n", url)
		if err := util.OpenBrowser(url); err != nil {
			fmt.Fprintf(out, "Browser konnte nicht geöffnet werden, bitte manuell aufrufen: %s\n", url)
		}
	}
	fmt.Fprintln(out, "\nBeenden mit Strg+C ...")

	err := g.Wait()
	fmt.Fprintln(out, "\nDienst wird beendet ...")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// browserHost 通配地址换成 localhost
func browserHost(h string) string {
	switch h {
	case "", "0.0.0.0", "::":
		return "localhost"
	}
	return h
}
