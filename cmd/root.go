package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vrewgen/internal/config"
	"vrewgen/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vrewgen",
	Short: "vrewgen - script to Vrew project generator",
	Long: `vrewgen aligns a narration script with a sheet of scene markers,
splits the scenes into caption clips and writes Vrew project files
that pair every clip with its scene image and AI voice settings.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.vrewgen")
	}

	viper.SetEnvPrefix("VREWGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "60s")
	viper.SetDefault("server.write_timeout", "5m")
	viper.SetDefault("server.max_upload_size", 256<<20)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "auto")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB, used when pipeline.session_store is mongo
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "vrewgen")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)

	// Redis, empty addr disables the alignment cache
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "24h")

	// Storage, empty type keeps outputs on local disk only
	viper.SetDefault("storage.type", "")
	viper.SetDefault("storage.local.base_path", "./data/files")
	viper.SetDefault("storage.local.base_url", "http://localhost:8080/files")

	// Pipeline
	viper.SetDefault("pipeline.template_path", "./TEMPLATE.vrew")
	viper.SetDefault("pipeline.dummy_tts_path", "")
	viper.SetDefault("pipeline.output_dir", "./outputs")
	viper.SetDefault("pipeline.work_dir", "./work")
	viper.SetDefault("pipeline.tts_voice", "va29")
	viper.SetDefault("pipeline.split_size", 10)
	viper.SetDefault("pipeline.max_clip_chars", 100)
	viper.SetDefault("pipeline.cleanup_after", "12h")
	viper.SetDefault("pipeline.max_parallel", 1)
	viper.SetDefault("pipeline.session_store", config.SessionStoreMemory)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
