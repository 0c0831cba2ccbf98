package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"albstats/internal/config"
)

var forceInit bool

// configCmd 配置文件管理
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Konfiguration anzeigen oder anlegen",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Wirksame Konfiguration ausgeben (Datei + Umgebung)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, info, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if info.Found {
			fmt.Fprintf(out, "# %s\n", info.Path)
		} else {
			fmt.Fprintf(out, "# %s (nicht vorhanden, Standardwerte)\n", info.Path)
		}
		data, err := toml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "config.toml mit Standardwerten anlegen",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s existiert bereits (--force zum Überschreiben)", path)
		}
		if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Konfiguration geschrieben: %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "vorhandene Datei überschreiben")
	configCmd.AddCommand(configShowCmd, configInitCmd)
}
